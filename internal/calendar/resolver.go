// Package calendar decides which service calendars operate on a date and which
// dates a timetable can be viewed for.
package calendar

import (
	"slices"
	"time"

	"timetables.bustimes.org/internal/models"
)

// BankHolidays maps a date (midnight UTC) to the bank holidays observed on it.
type BankHolidays map[time.Time][]string

// Add records that the named bank holiday falls on date.
func (b BankHolidays) Add(name string, date time.Time) {
	day := models.Date(date)
	if !slices.Contains(b[day], name) {
		b[day] = append(b[day], name)
	}
}

// On returns the bank holidays observed on date.
func (b BankHolidays) On(date time.Time) []string {
	if b == nil {
		return nil
	}
	return b[models.Date(date)]
}

// IsActive reports whether c operates on date.
//
// A special operating exception re-adds a date that a non-operating exception
// would otherwise remove. Bank holiday rules override the weekday pattern, and a
// calendar with plain operating exceptions runs only on those dates.
func IsActive(c *models.Calendar, date time.Time, holidays BankHolidays) bool {
	date = models.Date(date)
	if !c.Contains(date) {
		return false
	}

	var excluded, special, included bool
	for _, d := range c.Dates {
		if !d.Contains(date) {
			continue
		}
		switch {
		case !d.Operation:
			excluded = true
		case d.Special:
			special = true
		default:
			included = true
		}
	}
	if special {
		return true
	}
	if excluded {
		return false
	}

	if len(c.BankHolidays) > 0 {
		observed := holidays.On(date)
		var bankIncluded bool
		for _, bh := range c.BankHolidays {
			if !slices.Contains(observed, bh.BankHoliday) {
				continue
			}
			if !bh.Operation {
				return false
			}
			bankIncluded = true
		}
		if bankIncluded {
			return true
		}
	}

	if !c.Weekday(date) {
		return false
	}
	if c.HasOnlyCertainDates() {
		return included
	}
	return true
}

// Resolve returns the IDs of the calendars active on date, in input order.
func Resolve(calendars []models.Calendar, date time.Time, holidays BankHolidays) []string {
	var ids []string
	for i := range calendars {
		if IsActive(&calendars[i], date, holidays) {
			ids = append(ids, calendars[i].ID)
		}
	}
	return ids
}

// AnyActive reports whether at least one calendar operates on date.
func AnyActive(calendars []models.Calendar, date time.Time, holidays BankHolidays) bool {
	for i := range calendars {
		if IsActive(&calendars[i], date, holidays) {
			return true
		}
	}
	return false
}
