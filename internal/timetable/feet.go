package timetable

import "timetables.bustimes.org/internal/models"

// ColumnHead labels Span consecutive columns belonging to one route.
type ColumnHead struct {
	Route *models.Route
	Span  int
}

// ColumnFoot is one span of a note's footer row. Note is nil for the columns
// the note does not apply to.
type ColumnFoot struct {
	Note *models.Note
	Span int
}

// NoteFeet is the footer row for one note. The spans cover every column.
type NoteFeet struct {
	Note  models.Note
	Spans []ColumnFoot
}

// heads returns one head per maximal run of columns on the same route.
func heads(trips []*models.Trip, routes map[string]*models.Route) []ColumnHead {
	var out []ColumnHead
	for i, trip := range trips {
		if i > 0 && trips[i-1].RouteID == trip.RouteID {
			out[len(out)-1].Span++
			continue
		}
		route := routes[trip.RouteID]
		if route == nil {
			route = &models.Route{ID: trip.RouteID}
		}
		out = append(out, ColumnHead{Route: route, Span: 1})
	}
	return out
}

// footFold accumulates note spans one column at a time.
type footFold struct {
	columns int
	order   []string
	notes   map[string]models.Note
	spans   map[string][]ColumnFoot
	prev    map[string]struct{}
}

func newFootFold() *footFold {
	return &footFold{
		notes: map[string]models.Note{},
		spans: map[string][]ColumnFoot{},
	}
}

// step adds the next column, carrying notes.
func (f *footFold) step(notes []models.Note) {
	current := make(map[string]struct{}, len(notes))
	for _, note := range notes {
		if _, seen := current[note.ID]; seen {
			continue
		}
		current[note.ID] = struct{}{}

		spans, known := f.spans[note.ID]
		switch {
		case !known:
			f.order = append(f.order, note.ID)
			f.notes[note.ID] = note
			if f.columns > 0 {
				spans = append(spans, ColumnFoot{Span: f.columns})
			}
			spans = append(spans, ColumnFoot{Note: f.note(note.ID), Span: 1})
		case hasKey(f.prev, note.ID):
			spans[len(spans)-1].Span++
		default:
			spans = append(spans, ColumnFoot{Note: f.note(note.ID), Span: 1})
		}
		f.spans[note.ID] = spans
	}

	for _, id := range f.order {
		if hasKey(current, id) {
			continue
		}
		spans := f.spans[id]
		if last := &spans[len(spans)-1]; last.Note == nil {
			last.Span++
		} else {
			spans = append(spans, ColumnFoot{Span: 1})
		}
		f.spans[id] = spans
	}

	f.prev = current
	f.columns++
}

func (f *footFold) note(id string) *models.Note {
	n := f.notes[id]
	return &n
}

// finish returns the footer rows in order of each note's first column.
func (f *footFold) finish() []NoteFeet {
	out := make([]NoteFeet, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, NoteFeet{Note: f.notes[id], Spans: f.spans[id]})
	}
	return out
}

func hasKey(m map[string]struct{}, k string) bool {
	_, ok := m[k]
	return ok
}

// feet folds the columns' notes into footer rows.
func feet(trips []*models.Trip) []NoteFeet {
	fold := newFootFold()
	for _, trip := range trips {
		fold.step(trip.Notes)
	}
	return fold.finish()
}
