package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/models"
)

func (api *RestAPI) predictedArrivalsHandler(w http.ResponseWriter, r *http.Request) {
	route, stop, ok := api.routeAndStop(w, r)
	if !ok {
		return
	}

	if api.Tracker == nil {
		api.serviceUnavailableResponse(w, r, "real-time data unavailable")
		return
	}

	predictions, found, err := api.Engine.PredictArrivals(route, stop, api.Tracker.Vehicles())
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	entry := models.PredictedArrivalsEntry{
		RouteID:   route,
		StopRef:   stop,
		Found:     found,
		Predicted: models.NewPredictedArrivals(predictions),
	}
	if resolved, err := api.Engine.ResolveRoute(route); err == nil {
		entry.RouteID = resolved.ID
	}
	if updated := api.Tracker.UpdatedAt(); !updated.IsZero() {
		entry.VehicleAge = api.Engine.Now().Sub(updated).Milliseconds()
	}

	api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences()))
}
