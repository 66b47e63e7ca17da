package restapi

import (
	"net/http"
	"time"

	"timetables.bustimes.org/internal/models"
)

// currentTimeHandler reports the server clock in the timetable timezone, so
// clients know which date a timetable without ?date= is built for.
func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	if loc, err := api.Config.Location(); err == nil {
		now = now.In(loc)
	}
	api.sendResponse(w, r, models.NewEntryResponse(models.NewCurrentTime(now)))
}
