package restapi

import (
	"net/http"

	"github.com/mideind/straeto/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewCurrentTime(api.Engine.Now()), models.NewEmptyReferences()))
}
