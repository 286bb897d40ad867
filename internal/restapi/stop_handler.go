package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/models"
	"github.com/mideind/straeto/internal/utils"
)

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	stopID := utils.ExtractIDFromParams(r, "id")

	if err := utils.ValidateID(stopID); err != nil {
		fieldErrors := map[string][]string{
			"id": {err.Error()},
		}
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stop, err := api.Engine.Stop(stopID)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	visits, err := api.Engine.Visits(stop.ID)
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	entry := models.StopEntry{
		Stop:   models.NewStop(stop, routeIDs(visits)),
		Visits: make([]models.StopVisit, 0, len(visits)),
	}
	for _, v := range visits {
		entry.Visits = append(entry.Visits, models.StopVisit{RouteID: v.Route.ID, Directions: v.Directions})
		references.Routes = append(references.Routes, models.NewRoute(v.Route))
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, references))
}

func routeIDs(visits []engine.StopVisit) []string {
	ids := make([]string, 0, len(visits))
	for _, v := range visits {
		ids = append(ids, v.Route.ID)
	}
	return ids
}

// stopModels converts stops, attaching the routes that call at each.
func (api *RestAPI) stopModels(stops []feed.Stop) []models.Stop {
	out := make([]models.Stop, 0, len(stops))
	for _, s := range stops {
		visits, _ := api.Engine.Visits(s.ID)
		out = append(out, models.NewStop(s, routeIDs(visits)))
	}
	return out
}
