// Package timetable assembles scheduled trips into timetable grids: one
// Grouping per direction, with rows aligned across trips, columns in time
// order, and evenly spaced runs compressed into repetitions.
package timetable

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"timetables.bustimes.org/internal/calendar"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// Source is the store the builder reads from. Each method is one bulk fetch.
type Source interface {
	CalendarsForRoutes(ctx context.Context, routeIDs []string) ([]models.Calendar, error)
	BankHolidays(ctx context.Context, from, to time.Time) (calendar.BankHolidays, error)
	// TripsForRoutes returns the trips of the routes on the calendars, with
	// stop times in sequence order and notes.
	TripsForRoutes(ctx context.Context, routeIDs, calendarIDs []string) ([]models.Trip, error)
	// StopsByCodes returns the stop records found; missing codes are absent.
	StopsByCodes(ctx context.Context, codes []string) (map[string]models.Stop, error)
}

// Timetable is the grid for a set of routes on one date.
type Timetable struct {
	// Routes are the revisions in use on Date.
	Routes    []models.Route
	Date      *time.Time
	Calendars []models.Calendar
	// Calendar is set instead of Date when a single simple calendar applies.
	Calendar *models.Calendar
	// Groupings holds the outbound and inbound grids, earliest first.
	Groupings []*Grouping
	Options   *calendar.DateOptions
}

// HasExtraColumns reports whether any trip has block, garage, vehicle type or
// ticket machine details to show.
func (tt *Timetable) HasExtraColumns() bool {
	for _, g := range tt.Groupings {
		for _, trip := range g.Trips {
			if trip.HasOperationalDetails() {
				return true
			}
		}
	}
	return false
}

// HasSetDownOnly reports whether any visit is set down only somewhere other
// than the end of its trip.
func (tt *Timetable) HasSetDownOnly() bool {
	for _, g := range tt.Groupings {
		for _, row := range g.Rows() {
			for _, cell := range row.Cells {
				if cell.Kind == CellVisit && !cell.Visit.Last && cell.Visit.StopTime.IsSetDownOnly() {
					return true
				}
			}
		}
	}
	return false
}

// IsEmpty reports whether no grouping has any trips.
func (tt *Timetable) IsEmpty() bool {
	for _, g := range tt.Groupings {
		if !g.IsEmpty() {
			return false
		}
	}
	return true
}

// Builder builds timetables from a Source. Live is optional.
type Builder struct {
	Source     Source
	Live       LiveFeed
	Logger     *slog.Logger
	WindowDays int
	Today      func() time.Time
}

func (b *Builder) today() time.Time {
	if b.Today != nil {
		return models.Date(b.Today())
	}
	return models.Date(time.Now())
}

func (b *Builder) windowDays() int {
	if b.WindowDays > 0 {
		return b.WindowDays
	}
	return calendar.DefaultWindowDays
}

// Build assembles the timetable for routes on date. A nil date picks the
// first date the routes run. No routes or no trips give an empty timetable;
// corrupt trip data fails the build.
func (b *Builder) Build(ctx context.Context, routes []models.Route, date *time.Time) (*Timetable, error) {
	started := time.Now()
	logger := b.Logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}
	logger = logger.With(slog.String("component", "timetable_builder"))
	ctx = logging.WithLogger(ctx, logger)

	tt := &Timetable{}
	if len(routes) == 0 {
		return tt, b.finish(ctx, tt, nil, nil)
	}

	routeIDs := make([]string, len(routes))
	for i, r := range routes {
		routeIDs[i] = r.ID
	}
	calendars, err := b.Source.CalendarsForRoutes(ctx, routeIDs)
	if err != nil {
		return nil, fmt.Errorf("load calendars: %w", err)
	}
	tt.Calendars = calendars

	today := b.today()
	window := b.windowDays()
	from, to := holidayRange(calendars, today, window, date)
	holidays, err := b.Source.BankHolidays(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("load bank holidays: %w", err)
	}
	tt.Options = calendar.NewDateOptions(calendars, routes, today, date, window, holidays)

	var day time.Time
	var active []string
	switch {
	case date != nil:
		day = models.Date(*date)
		tt.Date = &day
		active = calendar.Resolve(calendars, day, holidays)
	case calendar.SimpleCalendar(calendars, today, window) != nil:
		tt.Calendar = calendar.SimpleCalendar(calendars, today, window)
		day = today
		if first, ok := tt.Options.First(); ok {
			day = first
		}
		active = []string{tt.Calendar.ID}
	default:
		first, ok := tt.Options.First()
		if !ok {
			logger.Debug("no date options", slog.Int("calendars", len(calendars)))
			return tt, b.finish(ctx, tt, nil, nil)
		}
		day = first
		tt.Date = &day
		active = calendar.Resolve(calendars, day, holidays)
	}

	tt.Routes = CurrentRoutes(routes, day)
	if len(tt.Routes) == 0 || len(active) == 0 {
		return tt, b.finish(ctx, tt, nil, nil)
	}

	currentIDs := make([]string, len(tt.Routes))
	byID := make(map[string]*models.Route, len(tt.Routes))
	for i := range tt.Routes {
		currentIDs[i] = tt.Routes[i].ID
		byID[tt.Routes[i].ID] = &tt.Routes[i]
	}
	trips, err := b.Source.TripsForRoutes(ctx, currentIDs, active)
	if err != nil {
		return nil, fmt.Errorf("load trips: %w", err)
	}

	if err := b.finish(ctx, tt, trips, byID); err != nil {
		return nil, err
	}

	rows := 0
	for _, g := range tt.Groupings {
		rows += len(g.order)
	}
	logging.LogOperation(logger, "timetable_built",
		slog.Int("routes", len(tt.Routes)),
		slog.Int("trips", len(trips)),
		slog.Int("rows", rows),
		slog.Duration("duration", time.Since(started)))
	return tt, nil
}

// holidayRange covers every date the options or the requested date can reach.
func holidayRange(calendars []models.Calendar, today time.Time, window int, date *time.Time) (time.Time, time.Time) {
	from := today
	for _, c := range calendars {
		if start := models.Date(c.StartDate); start.Before(from) {
			from = start
		}
	}
	to := today.AddDate(0, 0, window)
	if date != nil {
		day := models.Date(*date)
		if day.Before(from) {
			from = day
		}
		if day.After(to) {
			to = day
		}
	}
	return from, to
}

// finish splits the trips by direction and runs each grouping through the pipeline.
func (b *Builder) finish(ctx context.Context, tt *Timetable, trips []models.Trip, routes map[string]*models.Route) error {
	outbound, inbound := NewGrouping(false), NewGrouping(true)
	var byDirection [2][]*models.Trip
	for i := range trips {
		trip := &trips[i]
		if trip.Start == 0 && trip.End == 0 {
			trip.FillTimes()
		}
		if trip.Inbound {
			byDirection[1] = append(byDirection[1], trip)
		} else {
			byDirection[0] = append(byDirection[0], trip)
		}
	}
	tt.Groupings = []*Grouping{outbound, inbound}

	for i, g := range tt.Groupings {
		if err := g.AlignTrips(byDirection[i]); err != nil {
			return fmt.Errorf("%s: %w", g, err)
		}
		if err := g.Sort(); err != nil {
			return err
		}
		if _, err := g.ApplyLive(ctx, b.Live); err != nil {
			return err
		}
		if _, err := g.Compress(routes); err != nil {
			return err
		}
	}

	stops := map[string]models.Stop{}
	if codes := stopCodes(tt.Groupings); len(codes) > 0 {
		var err error
		stops, err = b.Source.StopsByCodes(ctx, codes)
		if err != nil {
			return fmt.Errorf("load stops: %w", err)
		}
	}
	for _, g := range tt.Groupings {
		if err := g.Finalize(stops); err != nil {
			return err
		}
	}

	if out, ok := outbound.Order(); ok {
		if in, ok := inbound.Order(); ok && in < out {
			tt.Groupings[0], tt.Groupings[1] = inbound, outbound
		}
	}
	return nil
}

func stopCodes(groupings []*Grouping) []string {
	seen := map[string]bool{}
	var codes []string
	for _, g := range groupings {
		for _, idx := range g.order {
			code := g.arena[idx].StopCode
			if !seen[code] {
				seen[code] = true
				codes = append(codes, code)
			}
		}
	}
	return codes
}
