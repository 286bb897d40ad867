package app

import (
	"log/slog"

	"github.com/mideind/straeto/internal/appconf"
	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/metrics"
	"github.com/mideind/straeto/internal/realtime"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware. Refresher, Tracker and Metrics may be nil when the
// corresponding feature is disabled.
type Application struct {
	Config    appconf.Config
	Logger    *slog.Logger
	Engine    *engine.Engine
	Refresher *engine.Refresher
	Tracker   *realtime.Tracker
	Metrics   *metrics.Collector
}

// Vehicles returns the vehicles last reported on routeID, or nil when
// real-time tracking is off.
func (app *Application) Vehicles(routeID string) []realtime.Vehicle {
	if app.Tracker == nil {
		return nil
	}
	return app.Tracker.OnRoute(routeID)
}
