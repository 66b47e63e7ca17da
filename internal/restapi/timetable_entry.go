package restapi

import (
	"iter"
	"time"

	"timetables.bustimes.org/internal/calendar"
	"timetables.bustimes.org/internal/models"
	"timetables.bustimes.org/internal/timetable"
)

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func formatNullClock(d models.NullDuration) string {
	if !d.Valid {
		return ""
	}
	return timetable.FormatClock(d.Duration)
}

func newTimetableEntry(tt *timetable.Timetable) models.TimetableEntry {
	entry := models.TimetableEntry{
		Date:            formatDate(tt.Date),
		Routes:          make([]models.TimetableRoute, 0, len(tt.Routes)),
		Groupings:       make([]models.GroupingEntry, 0, len(tt.Groupings)),
		DateOptions:     []string{},
		HasExtraColumns: tt.HasExtraColumns(),
		HasSetDownOnly:  tt.HasSetDownOnly(),
	}

	if tt.Calendar != nil {
		entry.Calendar = &models.CalendarEntry{
			ID:          tt.Calendar.ID,
			Description: calendar.Describe(tt.Calendar),
		}
	}

	for _, r := range tt.Routes {
		entry.Routes = append(entry.Routes, models.TimetableRoute{
			ID:             r.ID,
			ServiceID:      r.ServiceID,
			LineName:       r.LineName,
			RevisionNumber: r.RevisionNumber,
			StartDate:      formatDate(r.StartDate),
			EndDate:        formatDate(r.EndDate),
		})
	}

	pairs, journeys := timetable.Descriptions(tt.Routes)
	for _, p := range pairs {
		entry.Descriptions = append(entry.Descriptions, models.DescriptionEntry{Outbound: p[0], Inbound: p[1]})
	}
	entry.Journeys = journeys

	if tt.Options != nil {
		entry.DateOptions = formatDates(tt.Options.All())
		entry.Expired = tt.Options.Expired()
	}

	for _, g := range tt.Groupings {
		if g.IsEmpty() {
			continue
		}
		entry.Groupings = append(entry.Groupings, newGroupingEntry(g))
	}
	return entry
}

func formatDates(dates iter.Seq[time.Time]) []string {
	out := []string{}
	for d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

func newGroupingEntry(g *timetable.Grouping) models.GroupingEntry {
	entry := models.GroupingEntry{
		Inbound:       g.Inbound,
		HasMinorStops: g.HasMinorStops(),
		Columns:       make([]models.ColumnEntry, len(g.Trips)),
		Heads:         make([]models.HeadEntry, len(g.Heads)),
	}

	for i, trip := range g.Trips {
		entry.Columns[i] = models.ColumnEntry{
			TripID:            trip.ID,
			RouteID:           trip.RouteID,
			Block:             trip.Block,
			Garage:            trip.Garage,
			VehicleType:       trip.VehicleType,
			TicketMachineCode: trip.TicketMachineCode,
		}
	}

	for i, head := range g.Heads {
		entry.Heads[i] = models.HeadEntry{Span: head.Span}
		if head.Route != nil {
			entry.Heads[i].RouteID = head.Route.ID
			entry.Heads[i].LineName = head.Route.LineName
		}
	}

	rows := g.Rows()
	entry.Rows = make([]models.RowEntry, len(rows))
	for i, row := range rows {
		entry.Rows[i] = newRowEntry(row)
	}

	for _, foot := range g.Feet {
		fe := models.FootEntry{
			NoteID: foot.Note.ID,
			Code:   foot.Note.Code,
			Text:   foot.Note.Text,
			Spans:  make([]models.FootSpan, len(foot.Spans)),
		}
		for j, span := range foot.Spans {
			fe.Spans[j] = models.FootSpan{Applies: span.Note != nil, Span: span.Span}
		}
		entry.Feet = append(entry.Feet, fe)
	}
	return entry
}

func newRowEntry(row *timetable.Row) models.RowEntry {
	entry := models.RowEntry{
		StopCode:     row.StopCode,
		Name:         row.Name(),
		TimingStatus: row.TimingStatus,
		Minor:        row.IsMinor(),
		HasWaitTimes: row.HasWaitTimes,
		Cells:        make([]models.CellEntry, len(row.Cells)),
	}
	for i, cell := range row.Cells {
		entry.Cells[i] = newCellEntry(cell)
	}
	return entry
}

func newCellEntry(cell timetable.Cell) models.CellEntry {
	switch cell.Kind {
	case timetable.CellVisit:
		v := cell.Visit
		entry := models.CellEntry{
			Kind:              models.CellKindVisit,
			Arrival:           formatNullClock(v.Arrival),
			Departure:         formatNullClock(v.Departure),
			ExpectedArrival:   formatNullClock(v.ExpectedArrival),
			ExpectedDeparture: formatNullClock(v.ExpectedDeparture),
			Cancelled:         v.Cancelled,
		}
		if v.StopTime != nil {
			// only flag the unusual cases
			if !v.StopTime.PickUp && !v.Last {
				entry.PickUp = new(bool)
			}
			if !v.StopTime.SetDown && !v.First {
				entry.SetDown = new(bool)
			}
		}
		return entry
	case timetable.CellRepetition:
		rep := cell.Repetition
		entry := models.CellEntry{
			Kind:     models.CellKindRepetition,
			Text:     rep.Text(),
			Colspan:  rep.Colspan,
			Rowspan:  rep.Rowspan,
			Interval: int(rep.Interval / time.Minute),
		}
		for _, t := range rep.Times {
			entry.FirstTimes = append(entry.FirstTimes, formatNullClock(t))
		}
		return entry
	}
	return models.CellEntry{Kind: models.CellKindEmpty}
}

func newDateOptionsEntry(opts *calendar.DateOptions) models.DateOptionsEntry {
	if opts == nil {
		return models.DateOptionsEntry{Dates: []string{}}
	}
	return models.DateOptionsEntry{
		Dates:   formatDates(opts.All()),
		Expired: opts.Expired(),
	}
}
