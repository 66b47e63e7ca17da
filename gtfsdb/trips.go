package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// TripsForRoutes returns the trips on the routes that run on one of the
// calendars, each with its stop times in sequence order and its notes.
func (c *Client) TripsForRoutes(ctx context.Context, routeIDs, calendarIDs []string) ([]models.Trip, error) {
	if len(routeIDs) == 0 || len(calendarIDs) == 0 {
		return nil, nil
	}
	routesIn, routeArgs := inClause(routeIDs)
	calendarsIn, calendarArgs := inClause(calendarIDs)
	where := `route_id IN (` + routesIn + `) AND calendar_id IN (` + calendarsIn + `)`
	args := append(routeArgs, calendarArgs...)

	trips, index, err := c.queryTrips(ctx, where, args)
	if err != nil || len(trips) == 0 {
		return nil, err
	}
	if err := c.attachStopTimes(ctx, trips, index, where, args); err != nil {
		return nil, err
	}
	if err := c.attachNotes(ctx, trips, index, where, args); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *Client) queryTrips(ctx context.Context, where string, args []any) ([]models.Trip, map[string]int, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, route_id, calendar_id, inbound, start_time, end_time, journey_pattern,
			destination, block, garage, vehicle_type, ticket_machine_code, vehicle_journey_code
		FROM trips
		WHERE `+where+`
		ORDER BY start_time, id`, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("error querying trips: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "trip_rows")

	var trips []models.Trip
	index := map[string]int{}
	for rows.Next() {
		var t models.Trip
		var start, end int64
		err := rows.Scan(&t.ID, &t.RouteID, &t.CalendarID, &t.Inbound, &start, &end, &t.JourneyPattern,
			&t.Destination, &t.Block, &t.Garage, &t.VehicleType, &t.TicketMachineCode, &t.VehicleJourneyCode)
		if err != nil {
			return nil, nil, fmt.Errorf("error scanning trip: %w", err)
		}
		t.Start = time.Duration(start) * time.Second
		t.End = time.Duration(end) * time.Second
		index[t.ID] = len(trips)
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error reading trips: %w", err)
	}
	return trips, index, nil
}

func (c *Client) attachStopTimes(ctx context.Context, trips []models.Trip, index map[string]int, where string, args []any) error {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT trip_id, sequence, stop_code, stop_id, arrival, departure, pick_up, set_down, timing_status
		FROM stop_times
		WHERE trip_id IN (SELECT id FROM trips WHERE `+where+`)
		ORDER BY trip_id, sequence`, args...)
	if err != nil {
		return fmt.Errorf("error querying stop times: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "stop_time_rows")

	for rows.Next() {
		var st models.StopTime
		var stopID sql.NullString
		var arrival, departure sql.NullInt64
		var status string
		err := rows.Scan(&st.TripID, &st.Sequence, &st.StopCode, &stopID, &arrival, &departure,
			&st.PickUp, &st.SetDown, &status)
		if err != nil {
			return fmt.Errorf("error scanning stop time: %w", err)
		}
		st.StopID = stopID.String
		st.Arrival = fromNullSeconds(arrival)
		st.Departure = fromNullSeconds(departure)
		st.TimingStatus = models.TimingStatus(status)

		trip := &trips[index[st.TripID]]
		trip.StopTimes = append(trip.StopTimes, st)
	}
	return rows.Err()
}

func (c *Client) attachNotes(ctx context.Context, trips []models.Trip, index map[string]int, where string, args []any) error {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT trip_notes.trip_id, notes.id, notes.code, notes.text
		FROM trip_notes
		JOIN notes ON notes.id = trip_notes.note_id
		WHERE trip_notes.trip_id IN (SELECT id FROM trips WHERE `+where+`)
		ORDER BY trip_notes.trip_id, trip_notes.position`, args...)
	if err != nil {
		return fmt.Errorf("error querying notes: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "note_rows")

	for rows.Next() {
		var tripID string
		var n models.Note
		if err := rows.Scan(&tripID, &n.ID, &n.Code, &n.Text); err != nil {
			return fmt.Errorf("error scanning note: %w", err)
		}
		trip := &trips[index[tripID]]
		trip.Notes = append(trip.Notes, n)
	}
	return rows.Err()
}
