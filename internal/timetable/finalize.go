package timetable

import (
	"slices"

	"timetables.bustimes.org/internal/models"
)

// Finalize applies stop records to the rows, removes rows for suspended stops
// and strips the cells hidden under repetitions. Rows whose code has no stop
// record keep the raw code.
func (g *Grouping) Finalize(stops map[string]models.Stop) error {
	if err := g.transition(StateCompressed, StateFinalized); err != nil {
		return err
	}

	for _, idx := range g.order {
		row := &g.arena[idx]
		if stop, ok := stops[row.StopCode]; ok {
			row.Stop = &stop
		}
		if status, ok := rowTimingStatus(row.Cells); ok {
			row.TimingStatus = status
		}
	}

	g.removeSuspendedRows()

	for _, idx := range g.order {
		row := &g.arena[idx]
		row.Cells = slices.DeleteFunc(row.Cells, func(c Cell) bool {
			return c.Kind == cellCovered
		})
	}
	g.sizeRepetitions()
	return nil
}

// rowTimingStatus is the status of the row's first major visit, or of its
// first visit when every visit is minor.
func rowTimingStatus(cells []Cell) (models.TimingStatus, bool) {
	var first *Visit
	for _, cell := range cells {
		if cell.Visit == nil {
			continue
		}
		if !cell.Visit.IsMinor() {
			return cell.Visit.StopTime.TimingStatus, true
		}
		if first == nil {
			first = cell.Visit
		}
	}
	if first == nil {
		return "", false
	}
	return first.StopTime.TimingStatus, true
}

func (g *Grouping) removeSuspendedRows() {
	reps := g.Repetitions()
	kept := g.order[:0:0]
	var keptRows []int
	var carried []Cell
	for y, idx := range g.order {
		row := &g.arena[idx]
		if row.Stop != nil && row.Stop.Suspended {
			if len(kept) == 0 && carried == nil {
				carried = row.Cells
			}
			continue
		}
		if len(kept) == 0 && carried != nil {
			moveRepetitions(carried, row.Cells)
		}
		kept = append(kept, idx)
		keptRows = append(keptRows, y)
	}
	if len(kept) == len(g.order) {
		return
	}
	g.order = kept

	for _, rep := range reps {
		times := make([]models.NullDuration, len(keptRows))
		for i, y := range keptRows {
			times[i] = rep.Times[y]
		}
		rep.Times = times
	}
}

// moveRepetitions copies the repetitions of a removed top row into the row
// that replaces it. The column under each repetition is already covered.
func moveRepetitions(from, to []Cell) {
	for x, cell := range from {
		if cell.Kind == CellRepetition {
			to[x] = Cell{Kind: CellRepetition, Repetition: cell.Repetition, Visit: to[x].Visit}
		}
	}
}
