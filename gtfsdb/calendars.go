package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"timetables.bustimes.org/internal/calendar"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// CalendarsForRoutes returns every calendar used by a trip on the routes, with
// its dated exceptions and bank holiday rules.
func (c *Client) CalendarsForRoutes(ctx context.Context, routeIDs []string) ([]models.Calendar, error) {
	if len(routeIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(routeIDs)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			start_date, end_date, summary
		FROM calendars
		WHERE id IN (SELECT DISTINCT calendar_id FROM trips WHERE route_id IN (`+in+`))
		ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying calendars: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "calendar_rows")

	var calendars []models.Calendar
	index := map[string]int{}
	for rows.Next() {
		var cal models.Calendar
		var startDate string
		var endDate sql.NullString
		err := rows.Scan(&cal.ID,
			&cal.Monday, &cal.Tuesday, &cal.Wednesday, &cal.Thursday, &cal.Friday, &cal.Saturday, &cal.Sunday,
			&startDate, &endDate, &cal.Summary)
		if err != nil {
			return nil, fmt.Errorf("error scanning calendar: %w", err)
		}
		if cal.StartDate, err = parseDate(startDate); err != nil {
			return nil, err
		}
		if cal.EndDate, err = fromNullDate(endDate); err != nil {
			return nil, err
		}
		index[cal.ID] = len(calendars)
		calendars = append(calendars, cal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading calendars: %w", err)
	}
	if len(calendars) == 0 {
		return nil, nil
	}

	ids := make([]string, len(calendars))
	for i, cal := range calendars {
		ids[i] = cal.ID
	}
	if err := c.attachCalendarDates(ctx, calendars, index, ids); err != nil {
		return nil, err
	}
	if err := c.attachBankHolidayRules(ctx, calendars, index, ids); err != nil {
		return nil, err
	}
	return calendars, nil
}

func (c *Client) attachCalendarDates(ctx context.Context, calendars []models.Calendar, index map[string]int, ids []string) error {
	in, args := inClause(ids)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT calendar_id, start_date, end_date, operation, special, summary
		FROM calendar_dates
		WHERE calendar_id IN (`+in+`)
		ORDER BY calendar_id, start_date, rowid`, args...)
	if err != nil {
		return fmt.Errorf("error querying calendar dates: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "calendar_date_rows")

	for rows.Next() {
		var calendarID, startDate, endDate string
		var d models.CalendarDate
		if err := rows.Scan(&calendarID, &startDate, &endDate, &d.Operation, &d.Special, &d.Summary); err != nil {
			return fmt.Errorf("error scanning calendar date: %w", err)
		}
		if d.StartDate, err = parseDate(startDate); err != nil {
			return err
		}
		if d.EndDate, err = parseDate(endDate); err != nil {
			return err
		}
		cal := &calendars[index[calendarID]]
		cal.Dates = append(cal.Dates, d)
	}
	return rows.Err()
}

func (c *Client) attachBankHolidayRules(ctx context.Context, calendars []models.Calendar, index map[string]int, ids []string) error {
	in, args := inClause(ids)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT calendar_id, bank_holiday, operation
		FROM calendar_bank_holidays
		WHERE calendar_id IN (`+in+`)
		ORDER BY calendar_id, bank_holiday`, args...)
	if err != nil {
		return fmt.Errorf("error querying calendar bank holidays: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "calendar_bank_holiday_rows")

	for rows.Next() {
		var calendarID string
		var bh models.CalendarBankHoliday
		if err := rows.Scan(&calendarID, &bh.BankHoliday, &bh.Operation); err != nil {
			return fmt.Errorf("error scanning calendar bank holiday: %w", err)
		}
		cal := &calendars[index[calendarID]]
		cal.BankHolidays = append(cal.BankHolidays, bh)
	}
	return rows.Err()
}

// BankHolidays returns the bank holidays falling between from and to inclusive.
func (c *Client) BankHolidays(ctx context.Context, from, to time.Time) (calendar.BankHolidays, error) {
	rows, err := c.DB.QueryContext(ctx, `
		SELECT bank_holiday, date
		FROM bank_holiday_dates
		WHERE date BETWEEN ? AND ?
		ORDER BY date, bank_holiday`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("error querying bank holidays: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "bank_holiday_rows")

	holidays := calendar.BankHolidays{}
	for rows.Next() {
		var name, date string
		if err := rows.Scan(&name, &date); err != nil {
			return nil, fmt.Errorf("error scanning bank holiday: %w", err)
		}
		day, err := parseDate(date)
		if err != nil {
			return nil, err
		}
		holidays.Add(name, day)
	}
	return holidays, rows.Err()
}
