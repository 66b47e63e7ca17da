package timetable

import (
	"cmp"
	"fmt"
	"slices"

	"timetables.bustimes.org/internal/models"
)

// AlignTrips merges the trips' stop sequences into the grouping's rows.
// Trips with more stops go first so that fewer rows need inserting; trips of
// equal length keep their given order.
func (g *Grouping) AlignTrips(trips []*models.Trip) error {
	ordered := make([]int, len(trips))
	for i := range ordered {
		ordered[i] = i
	}
	slices.SortStableFunc(ordered, func(a, b int) int {
		return cmp.Compare(len(trips[b].StopTimes), len(trips[a].StopTimes))
	})
	for _, i := range ordered {
		if err := g.addTrip(trips[i], i); err != nil {
			return err
		}
	}
	return nil
}

// AddTrip aligns a single trip after those already added.
func (g *Grouping) AddTrip(trip *models.Trip) error {
	return g.addTrip(trip, len(g.Trips))
}

func (g *Grouping) addTrip(trip *models.Trip, seq int) error {
	if g.state != StateBuilding {
		return fmt.Errorf("%w: cannot add trip %s to %s grouping", ErrInvalidTransition, trip.ID, g.state)
	}
	if len(trip.StopTimes) == 0 {
		return fmt.Errorf("trip %s: %w", trip.ID, ErrEmptyTrip)
	}

	x := len(g.Trips)
	current := make([]string, len(g.order))
	for y, idx := range g.order {
		current[y] = g.arena[idx].StopCode
	}
	codes := make([]string, len(trip.StopTimes))
	for i := range trip.StopTimes {
		codes[i] = trip.StopTimes[i].StopCode
	}

	order := make([]int, 0, len(g.order)+len(codes))
	visits := make([]*Visit, 0, len(codes))
	for _, edit := range Align(current, codes) {
		switch edit.Kind {
		case EditDelete:
			order = append(order, g.order[edit.Old])
			continue
		case EditEqual:
			idx := g.order[edit.Old]
			if g.arena[idx].StopCode != edit.Token {
				return g.mismatch(trip, edit)
			}
			order = append(order, idx)
		case EditInsert:
			cells := make([]Cell, x, x+1)
			for i := range cells {
				cells[i] = emptyCell()
			}
			g.arena = append(g.arena, Row{StopCode: edit.Token, Cells: cells})
			order = append(order, len(g.arena)-1)
		}

		if edit.New != len(visits) || codes[edit.New] != edit.Token {
			return g.mismatch(trip, edit)
		}
		st := &trip.StopTimes[edit.New]
		v := newVisit(st)
		row := &g.arena[order[len(order)-1]]
		if row.TimingStatus == "" {
			row.TimingStatus = st.TimingStatus
		}
		row.Cells = append(row.Cells, visitCell(v))
		visits = append(visits, v)
	}
	if len(visits) != len(codes) {
		return fmt.Errorf("trip %s: %w: aligned %d of %d stops", trip.ID, ErrAlignmentMismatch, len(visits), len(codes))
	}
	visits[0].First = true
	visits[len(visits)-1].Last = true

	g.order = order
	for _, idx := range g.order {
		row := &g.arena[idx]
		if len(row.Cells) == x {
			row.Cells = append(row.Cells, emptyCell())
		}
	}
	g.Trips = append(g.Trips, trip)
	g.seq = append(g.seq, seq)
	g.live = append(g.live, false)
	return nil
}

func (g *Grouping) mismatch(trip *models.Trip, edit Edit) error {
	return fmt.Errorf("trip %s: %w at %q (%s)", trip.ID, ErrAlignmentMismatch, edit.Token, edit.Kind)
}
