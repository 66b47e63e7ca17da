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

// SetRoutes returns the router for the API. Route parameters reach handlers
// through the request context.
func (api *RestAPI) SetRoutes() *httprouter.Router {
	router := httprouter.New()
	router.Handler(http.MethodGet, "/api/current-time.json", validateAPIKey(api, api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/timetable/:routes", validateAPIKey(api, api.timetableHandler))
	router.Handler(http.MethodGet, "/api/timetable-dates/:routes", validateAPIKey(api, api.timetableDatesHandler))
	router.NotFound = http.HandlerFunc(api.sendNotFound)
	return router
}
