package calendar

import (
	"iter"
	"time"

	"timetables.bustimes.org/internal/models"
)

// DefaultWindowDays is how far ahead of today date options extend.
const DefaultWindowDays = 21

// DateOptions is the finite set of dates a timetable can be viewed for.
type DateOptions struct {
	calendars []models.Calendar
	holidays  BankHolidays
	requested *time.Time
	lower     time.Time
	upper     time.Time
	expired   bool
}

// NewDateOptions computes the option window for today.
//
// The lower bound is the later of today and the earliest calendar start. The
// upper bound is today plus windowDays, capped by the latest route end date when
// every route has one. If every calendar has already finished the window is
// moved back to the week before the upper bound and the options are marked expired.
// A requested date is always included, even outside the window.
func NewDateOptions(calendars []models.Calendar, routes []models.Route, today time.Time, requested *time.Time, windowDays int, holidays BankHolidays) *DateOptions {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	today = models.Date(today)

	lower := today
	if earliest, ok := earliestCalendarStart(calendars); ok && earliest.After(today) {
		lower = earliest
	}

	upper := today.AddDate(0, 0, windowDays)
	if end, ok := latestRouteEnd(routes); ok && end.Before(upper) {
		upper = end
	}

	opts := &DateOptions{
		calendars: calendars,
		holidays:  holidays,
		lower:     lower,
		upper:     upper,
	}
	if upper.Before(lower) {
		opts.lower = upper.AddDate(0, 0, -7)
		opts.expired = true
	}
	if requested != nil {
		day := models.Date(*requested)
		opts.requested = &day
	}
	return opts
}

func earliestCalendarStart(calendars []models.Calendar) (time.Time, bool) {
	if len(calendars) == 0 {
		return time.Time{}, false
	}
	earliest := models.Date(calendars[0].StartDate)
	for _, c := range calendars[1:] {
		if start := models.Date(c.StartDate); start.Before(earliest) {
			earliest = start
		}
	}
	return earliest, true
}

// latestRouteEnd returns the latest route end date, or false if any route is open ended.
func latestRouteEnd(routes []models.Route) (time.Time, bool) {
	if len(routes) == 0 {
		return time.Time{}, false
	}
	var latest time.Time
	for i, r := range routes {
		if r.EndDate == nil {
			return time.Time{}, false
		}
		end := models.Date(*r.EndDate)
		if i == 0 || end.After(latest) {
			latest = end
		}
	}
	return latest, true
}

// Expired reports whether every calendar had finished before today.
func (o *DateOptions) Expired() bool {
	return o.expired
}

// Bounds returns the first and last dates of the window.
func (o *DateOptions) Bounds() (time.Time, time.Time) {
	return o.lower, o.upper
}

// All yields the options in order. It can be ranged over any number of times.
func (o *DateOptions) All() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		if o.requested != nil && o.requested.Before(o.lower) {
			if !yield(*o.requested) {
				return
			}
		}
		for date := o.lower; !date.After(o.upper); date = date.AddDate(0, 0, 1) {
			isRequested := o.requested != nil && o.requested.Equal(date)
			if isRequested || AnyActive(o.calendars, date, o.holidays) {
				if !yield(date) {
					return
				}
			}
		}
		if o.requested != nil && o.requested.After(o.upper) {
			yield(*o.requested)
		}
	}
}

// First returns the first option, if any.
func (o *DateOptions) First() (time.Time, bool) {
	for date := range o.All() {
		return date, true
	}
	return time.Time{}, false
}

// Dates collects every option.
func (o *DateOptions) Dates() []time.Time {
	var dates []time.Time
	for date := range o.All() {
		dates = append(dates, date)
	}
	return dates
}
