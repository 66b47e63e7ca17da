package models

import "time"

// Calendar is a pattern of operation shared by trips: weekday flags plus dated exceptions.
type Calendar struct {
	ID           string                `json:"id"`
	Monday       bool                  `json:"monday"`
	Tuesday      bool                  `json:"tuesday"`
	Wednesday    bool                  `json:"wednesday"`
	Thursday     bool                  `json:"thursday"`
	Friday       bool                  `json:"friday"`
	Saturday     bool                  `json:"saturday"`
	Sunday       bool                  `json:"sunday"`
	StartDate    time.Time             `json:"startDate"`
	EndDate      *time.Time            `json:"endDate,omitempty"`
	Dates        []CalendarDate        `json:"dates,omitempty"`
	BankHolidays []CalendarBankHoliday `json:"bankHolidays,omitempty"`
	Summary      string                `json:"summary,omitempty"`
}

// CalendarDate is an exception covering StartDate..EndDate inclusive.
// Operation false means the calendar does not run on those dates.
// Special marks an operating exception that re-adds dates otherwise excluded.
type CalendarDate struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Operation bool      `json:"operation"`
	Special   bool      `json:"special"`
	Summary   string    `json:"summary,omitempty"`
}

// CalendarBankHoliday says whether a calendar runs on a named bank holiday.
type CalendarBankHoliday struct {
	BankHoliday string `json:"bankHoliday"`
	Operation   bool   `json:"operation"`
}

// Contains reports whether date falls inside the exception's range.
func (d CalendarDate) Contains(date time.Time) bool {
	return !date.Before(d.StartDate) && !date.After(d.EndDate)
}

// Weekday reports the flag for the weekday of date.
func (c *Calendar) Weekday(date time.Time) bool {
	switch date.Weekday() {
	case time.Monday:
		return c.Monday
	case time.Tuesday:
		return c.Tuesday
	case time.Wednesday:
		return c.Wednesday
	case time.Thursday:
		return c.Thursday
	case time.Friday:
		return c.Friday
	case time.Saturday:
		return c.Saturday
	default:
		return c.Sunday
	}
}

// Contains reports whether date is within StartDate..EndDate; a nil EndDate is open.
func (c *Calendar) Contains(date time.Time) bool {
	if date.Before(c.StartDate) {
		return false
	}
	return c.EndDate == nil || !date.After(*c.EndDate)
}

// DisplayEndDate is EndDate truncated by the earliest non-operating exception that
// runs up to or past it.
func (c *Calendar) DisplayEndDate() *time.Time {
	if c.EndDate == nil {
		return nil
	}
	end := *c.EndDate
	for _, d := range c.Dates {
		if d.Operation || d.EndDate.Before(end) {
			continue
		}
		if !d.StartDate.After(end) {
			end = d.StartDate.AddDate(0, 0, -1)
		}
	}
	return &end
}

// HasOnlyCertainDates reports whether the calendar runs only on listed operating dates.
func (c *Calendar) HasOnlyCertainDates() bool {
	for _, d := range c.Dates {
		if d.Operation && !d.Special {
			return true
		}
	}
	return false
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
