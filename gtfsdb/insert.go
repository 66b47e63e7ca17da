package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// Feed is everything one import writes. Notes are taken from the trips.
type Feed struct {
	Routes    []models.Route
	Calendars []models.Calendar
	Trips     []models.Trip
	Stops     []models.Stop
}

// BankHolidayRule says whether a calendar runs on a named bank holiday.
type BankHolidayRule struct {
	CalendarID  string
	BankHoliday string
	Operation   bool
}

// feedTables lists the tables an import replaces, children first.
var feedTables = []string{"trip_notes", "notes", "stop_times", "trips", "calendar_dates", "calendars", "stops", "routes"}

// ImportFeed replaces the stored feed in one transaction.
func (c *Client) ImportFeed(ctx context.Context, feed Feed) error {
	startTime := time.Now()
	defer func() {
		c.importRuntime = time.Since(startTime)
	}()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "import_feed")

	for _, table := range feedTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	steps := []struct {
		name string
		run  func(context.Context, *sql.Tx, Feed) error
	}{
		{"routes", insertRoutes},
		{"stops", insertStops},
		{"calendars", insertCalendars},
		{"trips", insertTrips},
		{"notes", insertNotes},
	}
	for _, step := range steps {
		if err := step.run(ctx, tx, feed); err != nil {
			return fmt.Errorf("error importing %s: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "feed_imported",
		slog.Int("routes", len(feed.Routes)),
		slog.Int("calendars", len(feed.Calendars)),
		slog.Int("trips", len(feed.Trips)),
		slog.Int("stops", len(feed.Stops)),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

func insertRoutes(ctx context.Context, tx *sql.Tx, feed Feed) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO routes (
			id, service_id, line_name, code, revision_number, start_date, end_date,
			origin, destination, via, inbound_description, outbound_description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, r := range feed.Routes {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.ServiceID, r.LineName, r.Code, r.RevisionNumber,
			toNullDate(r.StartDate), toNullDate(r.EndDate),
			r.Origin, r.Destination, r.Via, r.InboundDescription, r.OutboundDescription,
		)
		if err != nil {
			return fmt.Errorf("error inserting route %s: %w", r.ID, err)
		}
	}
	return nil
}

func insertStops(ctx context.Context, tx *sql.Tx, feed Feed) error {
	// stop codes are unique, so a repeated code fails the import
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stops (
			id, code, name, indicator, locality, suspended
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, s := range feed.Stops {
		_, err := stmt.ExecContext(ctx,
			s.ID, s.Code, s.Name, s.Indicator, s.Locality, boolToInt(s.Suspended),
		)
		if err != nil {
			return fmt.Errorf("error inserting stop %s: %w", s.ID, err)
		}
	}
	return nil
}

func insertCalendars(ctx context.Context, tx *sql.Tx, feed Feed) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO calendars (
			id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			start_date, end_date, summary
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	dateStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calendar_dates (
			calendar_id, start_date, end_date, operation, special, summary
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer dateStmt.Close() // nolint:errcheck

	for _, cal := range feed.Calendars {
		_, err := stmt.ExecContext(ctx,
			cal.ID,
			boolToInt(cal.Monday), boolToInt(cal.Tuesday), boolToInt(cal.Wednesday),
			boolToInt(cal.Thursday), boolToInt(cal.Friday), boolToInt(cal.Saturday), boolToInt(cal.Sunday),
			cal.StartDate.Format(dateLayout), toNullDate(cal.EndDate), cal.Summary,
		)
		if err != nil {
			return fmt.Errorf("error inserting calendar %s: %w", cal.ID, err)
		}
		for _, d := range cal.Dates {
			_, err := dateStmt.ExecContext(ctx,
				cal.ID, d.StartDate.Format(dateLayout), d.EndDate.Format(dateLayout),
				boolToInt(d.Operation), boolToInt(d.Special), d.Summary,
			)
			if err != nil {
				return fmt.Errorf("error inserting calendar date for %s: %w", cal.ID, err)
			}
		}
	}
	return nil
}

func insertTrips(ctx context.Context, tx *sql.Tx, feed Feed) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO trips (
			id, route_id, calendar_id, inbound, start_time, end_time, journey_pattern,
			destination, block, garage, vehicle_type, ticket_machine_code, vehicle_journey_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	stopTimeStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stop_times (
			trip_id, sequence, stop_code, stop_id, arrival, departure,
			pick_up, set_down, timing_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stopTimeStmt.Close() // nolint:errcheck

	for _, t := range feed.Trips {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.RouteID, t.CalendarID, boolToInt(t.Inbound),
			int64(t.Start/time.Second), int64(t.End/time.Second), t.JourneyPattern,
			t.Destination, t.Block, t.Garage, t.VehicleType, t.TicketMachineCode, t.VehicleJourneyCode,
		)
		if err != nil {
			return fmt.Errorf("error inserting trip %s: %w", t.ID, err)
		}
		for _, st := range t.StopTimes {
			_, err := stopTimeStmt.ExecContext(ctx,
				t.ID, st.Sequence, st.StopCode, toNullString(st.StopID),
				toNullSeconds(st.Arrival), toNullSeconds(st.Departure),
				boolToInt(st.PickUp), boolToInt(st.SetDown), string(st.TimingStatus),
			)
			if err != nil {
				return fmt.Errorf("error inserting stop_time %s/%d: %w", t.ID, st.Sequence, err)
			}
		}
	}
	return nil
}

func insertNotes(ctx context.Context, tx *sql.Tx, feed Feed) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO notes (id, code, text) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	linkStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO trip_notes (trip_id, note_id, position) VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer linkStmt.Close() // nolint:errcheck

	for _, t := range feed.Trips {
		for i, n := range t.Notes {
			if _, err := stmt.ExecContext(ctx, n.ID, n.Code, n.Text); err != nil {
				return fmt.Errorf("error inserting note %s: %w", n.ID, err)
			}
			if _, err := linkStmt.ExecContext(ctx, t.ID, n.ID, i); err != nil {
				return fmt.Errorf("error linking note %s to trip %s: %w", n.ID, t.ID, err)
			}
		}
	}
	return nil
}

// ImportBankHolidays replaces the bank holiday dates and calendar rules.
func (c *Client) ImportBankHolidays(ctx context.Context, holidays map[string][]time.Time, rules []BankHolidayRule) (err error) {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "import_bank_holidays")

	for _, table := range []string{"bank_holiday_dates", "calendar_bank_holidays"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	dateStmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO bank_holiday_dates (bank_holiday, date) VALUES (?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.HandleDeferredError(&err, dateStmt.Close, c.logger, "close_bank_holiday_statement")

	for name, dates := range holidays {
		for _, d := range dates {
			if _, err := dateStmt.ExecContext(ctx, name, d.Format(dateLayout)); err != nil {
				return fmt.Errorf("error inserting bank holiday %s: %w", name, err)
			}
		}
	}

	ruleStmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO calendar_bank_holidays (calendar_id, bank_holiday, operation) VALUES (?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.HandleDeferredError(&err, ruleStmt.Close, c.logger, "close_bank_holiday_rule_statement")

	for _, rule := range rules {
		if _, err := ruleStmt.ExecContext(ctx, rule.CalendarID, rule.BankHoliday, boolToInt(rule.Operation)); err != nil {
			return fmt.Errorf("error inserting bank holiday rule for %s: %w", rule.CalendarID, err)
		}
	}

	return tx.Commit()
}
