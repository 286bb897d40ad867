package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/models"
	"github.com/mideind/straeto/internal/utils"
)

func (api *RestAPI) stopsNamedHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	name, err := utils.NormalizeStopQuery(queryParams.Get("name"))
	if err == nil && name == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"name": {"name is required"},
		})
		return
	}
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"name": {err.Error()},
		})
		return
	}

	fuzzy, fieldErrors := utils.ParseBoolParam(queryParams, "fuzzy", nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stops, err := api.Engine.StopsNamed(name, fuzzy)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(api.stopModels(stops), models.NewEmptyReferences()))
}
