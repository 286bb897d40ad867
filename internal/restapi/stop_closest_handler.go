package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/models"
	"github.com/mideind/straeto/internal/utils"
)

const maxClosestStops = 50

func (api *RestAPI) stopClosestHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	if queryParams.Get("lat") == "" || queryParams.Get("lon") == "" {
		api.validationErrorResponse(w, r, map[string][]string{
			"location": {"lat and lon are required"},
		})
		return
	}

	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", nil)
	lon, _ := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	radius, _ := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	n, _ := utils.ParseIntParam(queryParams, "n", 1, fieldErrors)
	if n > maxClosestStops {
		fieldErrors["n"] = append(fieldErrors["n"], "n too large (max 50)")
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if locationErrors := utils.ValidateLocationParams(lat, lon, radius); len(locationErrors) > 0 {
		api.validationErrorResponse(w, r, locationErrors)
		return
	}

	var stops []feed.Stop
	if n <= 1 && radius == 0 {
		stop, err := api.Engine.ClosestStop(lat, lon)
		if err != nil {
			api.engineErrorResponse(w, r, err)
			return
		}
		stops = []feed.Stop{stop}
	} else {
		var err error
		stops, err = api.Engine.ClosestStops(lat, lon, max(n, 1), radius)
		if err != nil {
			api.engineErrorResponse(w, r, err)
			return
		}
	}

	list := api.stopModels(stops)
	for i := range list {
		list[i] = list[i].From(lat, lon)
	}

	api.sendResponse(w, r, models.NewListResponse(list, models.NewEmptyReferences()))
}
