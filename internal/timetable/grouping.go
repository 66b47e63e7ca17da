package timetable

import (
	"errors"
	"fmt"
	"time"

	"timetables.bustimes.org/internal/models"
)

var (
	// ErrAlignmentMismatch means a trip's stops could not be matched to the
	// rows they were aligned with. It indicates corrupt trip data.
	ErrAlignmentMismatch = errors.New("stop alignment mismatch")
	// ErrEmptyTrip is returned for a trip without stop times.
	ErrEmptyTrip = errors.New("trip has no stop times")
	// ErrInvalidTransition is returned when a grouping step runs out of order.
	ErrInvalidTransition = errors.New("invalid grouping state transition")
)

// State is a grouping's position in the build pipeline.
type State uint8

const (
	StateBuilding State = iota
	StateSorted
	StateCompressed
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateSorted:
		return "sorted"
	case StateCompressed:
		return "compressed"
	case StateFinalized:
		return "finalized"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Row is one stop's cells across the grouping's columns.
type Row struct {
	StopCode     string
	Stop         *models.Stop
	TimingStatus models.TimingStatus
	HasWaitTimes bool
	Cells        []Cell
}

// IsMinor reports whether the row is an untimed stop.
func (r *Row) IsMinor() bool {
	return r.TimingStatus.IsMinor()
}

// Height is the number of lines the row occupies: two when it shows separate
// arrival and departure times.
func (r *Row) Height() int {
	if r.HasWaitTimes {
		return 2
	}
	return 1
}

// Name is the stop's display name, or the raw stop code when it did not resolve.
func (r *Row) Name() string {
	if r.Stop != nil {
		return r.Stop.DisplayName()
	}
	return r.StopCode
}

// Grouping is one direction's grid. Rows are kept in an arena addressed by
// order so that rows can be inserted anywhere while trips are aligned.
type Grouping struct {
	Inbound bool

	// Trips are the columns, left to right.
	Trips []*models.Trip
	Heads []ColumnHead
	Feet  []NoteFeet

	state State
	arena []Row
	order []int
	// seq is each column's position in the original trip order.
	seq []int
	// live marks columns changed by the live feed.
	live []bool
}

// NewGrouping returns an empty grouping in the building state.
func NewGrouping(inbound bool) *Grouping {
	return &Grouping{Inbound: inbound}
}

func (g *Grouping) String() string {
	if g.Inbound {
		return "Inbound"
	}
	return "Outbound"
}

// State returns the current pipeline state.
func (g *Grouping) State() State {
	return g.state
}

func (g *Grouping) transition(from, to State) error {
	if g.state != from {
		return fmt.Errorf("%w: %s grouping cannot become %s", ErrInvalidTransition, g.state, to)
	}
	g.state = to
	return nil
}

// Rows returns the rows top to bottom.
func (g *Grouping) Rows() []*Row {
	rows := make([]*Row, len(g.order))
	for i, idx := range g.order {
		rows[i] = &g.arena[idx]
	}
	return rows
}

func (g *Grouping) row(y int) *Row {
	return &g.arena[g.order[y]]
}

// Order is the start time of the first trip, used to order the groupings.
func (g *Grouping) Order() (time.Duration, bool) {
	if len(g.Trips) == 0 {
		return 0, false
	}
	return g.Trips[0].Start, true
}

// HasMinorStops reports whether any row is an untimed stop.
func (g *Grouping) HasMinorStops() bool {
	for _, idx := range g.order {
		if g.arena[idx].IsMinor() {
			return true
		}
	}
	return false
}

// Width is the number of columns, counting those under repetitions.
func (g *Grouping) Width() int {
	return len(g.Trips)
}

// IsEmpty reports whether the grouping has no trips.
func (g *Grouping) IsEmpty() bool {
	return len(g.Trips) == 0
}

// permute reorders the columns so that new column i is old column perm[i].
func (g *Grouping) permute(perm []int) {
	trips := make([]*models.Trip, len(perm))
	seq := make([]int, len(perm))
	live := make([]bool, len(perm))
	for i, p := range perm {
		trips[i] = g.Trips[p]
		seq[i] = g.seq[p]
		live[i] = g.live[p]
	}
	g.Trips, g.seq, g.live = trips, seq, live

	for _, idx := range g.order {
		row := &g.arena[idx]
		cells := make([]Cell, len(perm))
		for i, p := range perm {
			cells[i] = row.Cells[p]
		}
		row.Cells = cells
	}
}

// visitAt returns the visit in row y and column x, if there is one.
func (g *Grouping) visitAt(y, x int) *Visit {
	cell := g.row(y).Cells[x]
	if cell.Kind != CellVisit {
		return nil
	}
	return cell.Visit
}
