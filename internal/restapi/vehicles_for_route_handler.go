package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/models"
	"github.com/mideind/straeto/internal/utils"
)

func (api *RestAPI) vehiclesForRouteHandler(w http.ResponseWriter, r *http.Request) {
	ref := utils.ExtractIDFromParams(r, "route")
	if err := utils.ValidateID(ref); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{
			"route": {err.Error()},
		})
		return
	}

	route, err := api.Engine.ResolveRoute(ref)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	vehicles := api.Vehicles(route.ID)
	list := make([]models.VehicleStatus, 0, len(vehicles))
	for _, v := range vehicles {
		list = append(list, models.NewVehicleStatus(v))
	}

	references := models.NewEmptyReferences()
	references.Routes = append(references.Routes, models.NewRoute(route))
	api.sendResponse(w, r, models.NewListResponse(list, references))
}
