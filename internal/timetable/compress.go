package timetable

import (
	"slices"
	"time"

	"timetables.bustimes.org/internal/models"
)

const (
	hourly       = time.Hour
	maxFrequency = 30 * time.Minute
)

// Compress removes duplicate columns, computes heads and feet, and collapses
// runs of evenly spaced, interchangeable trips into repetitions. It returns the
// number of duplicate columns removed.
func (g *Grouping) Compress(routes map[string]*models.Route) (int, error) {
	if err := g.transition(StateSorted, StateCompressed); err != nil {
		return 0, err
	}

	removed := g.removeDuplicateColumns()

	for _, idx := range g.order {
		row := &g.arena[idx]
		row.HasWaitTimes = slices.ContainsFunc(row.Cells, func(c Cell) bool {
			return c.Kind == CellVisit && c.Visit.WaitTime()
		})
	}

	g.Heads = heads(g.Trips, routes)
	g.Feet = feet(g.Trips)
	g.compressRepetitions()
	return removed, nil
}

// removeDuplicateColumns drops columns identical to the column before them,
// an artefact of some imports.
func (g *Grouping) removeDuplicateColumns() int {
	removed := 0
	for x := len(g.Trips) - 1; x > 0; x-- {
		if g.duplicates(x-1, x) {
			g.removeColumn(x)
			removed++
		}
	}
	return removed
}

func (g *Grouping) duplicates(a, b int) bool {
	ta, tb := g.Trips[a], g.Trips[b]
	if ta.RouteID != tb.RouteID || ta.Start != tb.Start || !sameNotes(ta, tb) {
		return false
	}
	for y := range g.order {
		ca, cb := g.row(y).Cells[a], g.row(y).Cells[b]
		if ca.Kind != cb.Kind {
			return false
		}
		if ca.Kind == CellVisit && (ca.Visit.Arrival != cb.Visit.Arrival || ca.Visit.Departure != cb.Visit.Departure) {
			return false
		}
	}
	return true
}

func (g *Grouping) removeColumn(x int) {
	g.Trips = slices.Delete(g.Trips, x, x+1)
	g.seq = slices.Delete(g.seq, x, x+1)
	g.live = slices.Delete(g.live, x, x+1)
	for _, idx := range g.order {
		row := &g.arena[idx]
		row.Cells = slices.Delete(row.Cells, x, x+1)
	}
}

func sameNotes(a, b *models.Trip) bool {
	na, nb := a.NoteIDs(), b.NoteIDs()
	if len(na) != len(nb) {
		return false
	}
	for id := range na {
		if _, ok := nb[id]; !ok {
			return false
		}
	}
	return true
}

// interchangeable reports whether columns a and b could be summarised by one
// repetition.
func (g *Grouping) interchangeable(a, b int) bool {
	if g.live[a] || g.live[b] {
		return false
	}
	ta, tb := g.Trips[a], g.Trips[b]
	return sameNotes(ta, tb) &&
		ta.RouteID == tb.RouteID &&
		ta.JourneyPattern != "" &&
		ta.JourneyPattern == tb.JourneyPattern &&
		ta.Destination == tb.Destination &&
		ta.Duration() == tb.Duration()
}

// compressRepetitions walks the columns collecting runs of interchangeable
// trips with a constant start interval, and collapses each run of two or more.
// A run that cannot collapse hands its last trip on to the next run.
func (g *Grouping) compressRepetitions() {
	start := 0
	var interval time.Duration

	for x := 1; x < len(g.Trips); x++ {
		if !g.interchangeable(x-1, x) {
			g.abbreviate(start, x, interval)
			start = x
			continue
		}
		delta := g.Trips[x].Start - g.Trips[x-1].Start
		if x-1 == start {
			interval = delta
			continue
		}
		if delta == interval {
			continue
		}
		if g.abbreviate(start, x, interval) {
			start = x
		} else {
			start, interval = x-1, delta
		}
	}
	g.abbreviate(start, len(g.Trips), interval)
}

// abbreviate replaces columns [first, end) with a repetition in the top row,
// covering every other cell of those columns. It reports whether it did.
func (g *Grouping) abbreviate(first, end int, interval time.Duration) bool {
	if end-first < 2 || len(g.order) == 0 {
		return false
	}
	if interval <= 0 || (interval != hourly && interval > maxFrequency) {
		return false
	}

	rep := &Repetition{
		Colspan:  end - first,
		Interval: interval,
		Times:    make([]models.NullDuration, len(g.order)),
	}
	for y := range g.order {
		row := g.row(y)
		if v := row.Cells[first].Visit; v != nil {
			rep.Times[y] = models.NewNullDuration(v.Time())
		}
		for x := first; x < end; x++ {
			row.Cells[x] = Cell{Kind: cellCovered, Visit: row.Cells[x].Visit}
		}
	}
	top := g.row(0)
	top.Cells[first] = Cell{Kind: CellRepetition, Repetition: rep, Visit: top.Cells[first].Visit}
	g.sizeRepetitions()
	return true
}

// sizeRepetitions sets every repetition's height to the rows' total height.
func (g *Grouping) sizeRepetitions() {
	height := 0
	for _, idx := range g.order {
		height += g.arena[idx].Height()
	}
	for _, idx := range g.order {
		for _, cell := range g.arena[idx].Cells {
			if cell.Kind == CellRepetition {
				cell.Repetition.Rowspan = height
				cell.Repetition.MinHeight = height
			}
		}
	}
}

// Repetitions returns the grouping's repetitions keyed by the first column
// each one covers. Repetitions always sit in the top row.
func (g *Grouping) Repetitions() map[int]*Repetition {
	reps := map[int]*Repetition{}
	if len(g.order) == 0 {
		return reps
	}
	x := 0
	for _, cell := range g.row(0).Cells {
		if cell.Kind == CellRepetition {
			reps[x] = cell.Repetition
		}
		x += cell.width()
	}
	return reps
}

// width is the number of columns a visible cell occupies.
func (c Cell) width() int {
	switch c.Kind {
	case CellRepetition:
		return c.Repetition.Colspan
	case cellCovered:
		return 0
	}
	return 1
}
