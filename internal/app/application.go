package app

import (
	"log/slog"
	"time"

	"timetables.bustimes.org/internal/appconf"
	"timetables.bustimes.org/internal/gtfs"
	"timetables.bustimes.org/internal/timetable"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Builder     *timetable.Builder
}

// NewBuilder returns a timetable builder reading from the manager's store and
// live feed, with today taken in loc.
func NewBuilder(cfg appconf.Config, loc *time.Location, manager *gtfs.Manager, logger *slog.Logger) *timetable.Builder {
	return &timetable.Builder{
		Source:     manager.GtfsDB,
		Live:       manager,
		Logger:     logger,
		WindowDays: cfg.Timetable.WindowDays,
		Today:      func() time.Time { return time.Now().In(loc) },
	}
}
