package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
	"timetables.bustimes.org/internal/timetable"
	"timetables.bustimes.org/internal/utils"
)

// buildForRequest validates the route list and date, loads the routes and
// builds their timetable. It writes the error response itself and returns
// nil when the request cannot be served.
func (api *RestAPI) buildForRequest(w http.ResponseWriter, r *http.Request, allowDate bool) *timetable.Timetable {
	routeIDs, err := utils.ValidateRouteIDs(utils.ExtractIDFromParams(r, "routes"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"routes": {err.Error()}})
		return nil
	}

	var date *time.Time
	if allowDate {
		var fieldErrors map[string][]string
		date, fieldErrors = utils.ParseDateParam(r.URL.Query(), "date", nil)
		if len(fieldErrors) > 0 {
			api.validationErrorResponse(w, r, fieldErrors)
			return nil
		}
	}

	ctx := r.Context()
	routes, err := api.GtfsManager.GtfsDB.RoutesByIDs(ctx, routeIDs)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return nil
	}
	if len(routes) == 0 {
		api.sendNotFound(w, r)
		return nil
	}

	tt, err := api.Builder.Build(ctx, routes, date)
	if err != nil {
		if ctx.Err() != nil {
			logging.FromContext(ctx).Debug("request cancelled", slog.String("path", r.URL.Path))
			return nil
		}
		api.serverErrorResponse(w, r, err)
		return nil
	}
	return tt
}

// timetableHandler serves GET /api/timetable/:routes, where routes is a
// comma separated list of route IDs and ?date=YYYY-MM-DD is optional.
func (api *RestAPI) timetableHandler(w http.ResponseWriter, r *http.Request) {
	tt := api.buildForRequest(w, r, true)
	if tt == nil {
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(newTimetableEntry(tt)))
}

// timetableDatesHandler serves the dates the routes can be shown for.
func (api *RestAPI) timetableDatesHandler(w http.ResponseWriter, r *http.Request) {
	tt := api.buildForRequest(w, r, false)
	if tt == nil {
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(newDateOptionsEntry(tt.Options)))
}
