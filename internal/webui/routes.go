package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/mideind/straeto/internal/engine"
	"github.com/mideind/straeto/internal/realtime"
)

// WebUI serves a plain HTML dump of the loaded schedule for debugging.
type WebUI struct {
	Engine  *engine.Engine
	Tracker *realtime.Tracker
}

func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/debug/", webUI.debugIndexHandler)
}
