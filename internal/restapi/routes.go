package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/where/current-time.json", validateAPIKey(api, api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/where/stop-closest.json", validateAPIKey(api, api.stopClosestHandler))
	router.Handler(http.MethodGet, "/api/where/stop/:id", validateAPIKey(api, api.stopHandler))
	router.Handler(http.MethodGet, "/api/where/stops-named.json", validateAPIKey(api, api.stopsNamedHandler))
	router.Handler(http.MethodGet, "/api/where/arrivals/:route", validateAPIKey(api, api.arrivalsHandler))
	router.Handler(http.MethodGet, "/api/where/predicted-arrivals/:route", validateAPIKey(api, api.predictedArrivalsHandler))
	router.Handler(http.MethodGet, "/api/where/vehicles-for-route/:route", validateAPIKey(api, api.vehiclesForRouteHandler))
	router.Handler(http.MethodPost, "/api/admin/reload", validateAPIKey(api, api.reloadHandler))

	router.NotFound = http.HandlerFunc(api.sendNotFound)
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.errorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
}
