package timetable

import (
	"fmt"
	"strings"
	"time"

	"timetables.bustimes.org/internal/models"
)

// CellKind tags the variant held by a Cell.
type CellKind uint8

const (
	// CellEmpty is a column whose trip does not call at the row's stop.
	CellEmpty CellKind = iota
	// CellVisit is a scheduled call.
	CellVisit
	// CellRepetition is a compressed run of columns.
	CellRepetition

	// cellCovered marks a cell hidden under a Repetition. It keeps the visit it
	// replaced until the grouping is finalized, when such cells are stripped.
	cellCovered
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellVisit:
		return "visit"
	case CellRepetition:
		return "repetition"
	}
	return "covered"
}

// Cell is one grid position. Visit is set for CellVisit, Repetition for
// CellRepetition. A repetition or covered cell keeps the visit it replaced.
type Cell struct {
	Kind       CellKind
	Visit      *Visit
	Repetition *Repetition
}

func emptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

func visitCell(v *Visit) Cell {
	return Cell{Kind: CellVisit, Visit: v}
}

// Visit is a trip calling at a stop.
type Visit struct {
	StopTime  *models.StopTime
	Arrival   models.NullDuration
	Departure models.NullDuration

	// First and Last mark the trip's first and last calls.
	First bool
	Last  bool

	// Set from the live feed.
	Cancelled         bool
	ExpectedArrival   models.NullDuration
	ExpectedDeparture models.NullDuration
}

func newVisit(st *models.StopTime) *Visit {
	return &Visit{
		StopTime:  st,
		Arrival:   st.Arrival,
		Departure: st.Departure,
	}
}

// Time is the time shown for the visit, preferring arrival.
func (v *Visit) Time() time.Duration {
	if v.Arrival.Valid {
		return v.Arrival.Duration
	}
	return v.Departure.Duration
}

// WaitTime reports whether the arrival and departure times differ.
func (v *Visit) WaitTime() bool {
	return v.Arrival.Valid && v.Departure.Valid && v.Arrival.Duration != v.Departure.Duration
}

// IsMinor reports whether the visit is at an untimed stop.
func (v *Visit) IsMinor() bool {
	return v.StopTime.TimingStatus.IsMinor()
}

// HasLiveData reports whether the live feed changed this visit.
func (v *Visit) HasLiveData() bool {
	return v.Cancelled || v.ExpectedArrival.Valid || v.ExpectedDeparture.Valid
}

func (v *Visit) String() string {
	return FormatClock(v.Time())
}

// Repetition replaces a run of Colspan trips that start every Interval. Times
// holds the run's first trip at each row, top to bottom; the other columns
// follow from Expand.
type Repetition struct {
	Colspan   int
	Rowspan   int
	MinHeight int
	Interval  time.Duration
	Times     []models.NullDuration
}

const nbsp = "\u00a0"

// Text renders "then every N minutes until", keeping the phrase together with
// non-breaking spaces when it has few rows to wrap over.
func (r *Repetition) Text() string {
	seconds := int(r.Interval / time.Second)
	if seconds == 3600 {
		if r.MinHeight < 3 {
			return "then" + nbsp + "hourly until"
		}
		return "then hourly until"
	}
	var duration string
	if seconds%3600 == 0 {
		duration = fmt.Sprintf("%d hours", seconds/3600)
	} else {
		duration = fmt.Sprintf("%d minutes", seconds/60)
	}
	switch {
	case r.MinHeight < 3:
		return "then" + nbsp + "every " + strings.ReplaceAll(duration, " ", nbsp) + nbsp + "until"
	case r.MinHeight < 4:
		return "then every" + nbsp + strings.ReplaceAll(duration, " ", nbsp) + " until"
	}
	return "then every " + duration + " until"
}

func (r *Repetition) String() string {
	return r.Text()
}

// Expand gives the time of the k-th trip of the run, counting from zero,
// given the first trip's time base.
func (r *Repetition) Expand(base models.NullDuration, k int) models.NullDuration {
	if !base.Valid || k < 0 || k >= r.Colspan {
		return models.NullDuration{}
	}
	return models.NewNullDuration(base.Duration + time.Duration(k)*r.Interval)
}

// FormatClock renders a time of day as HH:MM, wrapping times after midnight.
func FormatClock(d time.Duration) string {
	minutes := int(d/time.Minute) % (24 * 60)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
