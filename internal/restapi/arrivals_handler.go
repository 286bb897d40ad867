package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/feed"
	"github.com/mideind/straeto/internal/models"
	"github.com/mideind/straeto/internal/utils"
)

// routeAndStop reads the route path parameter and the stop query parameter.
// It writes a validation error and returns false when either is unusable.
func (api *RestAPI) routeAndStop(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	route := utils.ExtractIDFromParams(r, "route")
	fieldErrors := map[string][]string{}
	if err := utils.ValidateID(route); err != nil {
		fieldErrors["route"] = []string{err.Error()}
	}

	stop, err := utils.NormalizeStopQuery(r.URL.Query().Get("stop"))
	switch {
	case err != nil:
		fieldErrors["stop"] = []string{err.Error()}
	case stop == "":
		fieldErrors["stop"] = []string{"stop is required"}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return "", "", false
	}
	return route, stop, true
}

func (api *RestAPI) arrivalsHandler(w http.ResponseWriter, r *http.Request) {
	route, stop, ok := api.routeAndStop(w, r)
	if !ok {
		return
	}

	queryParams := r.URL.Query()
	now := api.Engine.Now()

	date, fieldErrors := utils.ParseDateParam(queryParams, "date", now, nil)
	var after *feed.TimeOfDay
	if queryParams.Get("time") == "now" {
		clock := feed.ClockOf(now)
		after = &clock
	} else {
		after, _ = utils.ParseTimeOfDayParam(queryParams, "time", fieldErrors)
	}
	limit, _ := utils.ParseIntParam(queryParams, "limit", 0, fieldErrors)
	excludeTerminus, _ := utils.ParseBoolParam(queryParams, "excludeTerminus", fieldErrors)

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	res, err := api.Engine.Query(engine.ArrivalsRequest{
		Route:           route,
		Stop:            stop,
		Date:            date,
		After:           after,
		Limit:           limit,
		ExcludeTerminus: excludeTerminus,
	})
	if err != nil {
		api.engineErrorResponse(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	if res.Route.ID != "" {
		references.Routes = append(references.Routes, models.NewRoute(res.Route))
	}
	for _, s := range res.Stops {
		references.Stops = append(references.Stops, models.NewStop(s, nil))
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewArrivalsEntry(res, date), references))
}
