package calendar

import (
	"strings"
	"time"

	"timetables.bustimes.org/internal/models"
)

// SimpleCalendar returns the only calendar when it has no exceptions between
// today and the end of the window and no bank holiday rules. Such a timetable
// looks the same on every date it runs, so the caller may pin the calendar
// instead of asking for a date.
func SimpleCalendar(calendars []models.Calendar, today time.Time, windowDays int) *models.Calendar {
	if len(calendars) != 1 {
		return nil
	}
	c := &calendars[0]
	if len(c.BankHolidays) > 0 {
		return nil
	}

	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	from := models.Date(today)
	to := from.AddDate(0, 0, windowDays)
	for _, d := range c.Dates {
		if !d.EndDate.Before(from) && !d.StartDate.After(to) {
			return nil
		}
	}
	return c
}

var weekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Describe returns the weekly pattern in words, for example "Monday to Friday"
// or "Mondays, Wednesdays and Fridays". An explicit Summary wins.
func Describe(c *models.Calendar) string {
	if c.Summary != "" {
		return c.Summary
	}
	days := [7]bool{c.Monday, c.Tuesday, c.Wednesday, c.Thursday, c.Friday, c.Saturday, c.Sunday}

	var first, last, count int
	first = -1
	for i, on := range days {
		if !on {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
		count++
	}

	switch {
	case count == 0:
		return ""
	case count == 7:
		return "Daily"
	case count == 1:
		return weekdayNames[first] + "s"
	case count == last-first+1 && count > 2:
		return weekdayNames[first] + " to " + weekdayNames[last]
	}

	var names []string
	for i, on := range days {
		if on {
			names = append(names, weekdayNames[i]+"s")
		}
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
