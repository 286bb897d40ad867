package restapi

import (
	"log/slog"
	"net/http"

	"github.com/mideind/straeto/internal/logging"
	"github.com/mideind/straeto/internal/models"
)

// reloadHandler fetches the feed again and swaps in the new snapshot.
func (api *RestAPI) reloadHandler(w http.ResponseWriter, r *http.Request) {
	if api.Refresher == nil {
		api.serviceUnavailableResponse(w, r, "feed refresh disabled")
		return
	}

	if err := api.Refresher.Refresh(r.Context()); err != nil {
		logging.LogError(api.logger(r), "manual feed reload failed", err,
			slog.String("component", "rest_api"))
		api.errorResponse(w, r, http.StatusBadGateway, "feed reload failed")
		return
	}

	snap := api.Engine.Snapshot()
	if snap == nil {
		api.serviceUnavailableResponse(w, r, "schedule not loaded")
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(snap.Info(), models.NewEmptyReferences()))
}
