package gtfsdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timetables.bustimes.org/internal/calendar"
	"timetables.bustimes.org/internal/models"
)

func TestRoutesByIDs(t *testing.T) {
	client := importTestFeed(t)
	ctx := context.Background()

	routes, err := client.RoutesByIDs(ctx, []string{"r2", "missing", "r1"})
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "r2", routes[0].ID)
	assert.Nil(t, routes[0].StartDate)

	r1 := routes[1]
	assert.Equal(t, "r1", r1.ID)
	assert.Equal(t, 2, r1.RevisionNumber)
	require.NotNil(t, r1.StartDate)
	assert.Equal(t, day(2024, 1, 1), *r1.StartDate)
	assert.Nil(t, r1.EndDate)
	assert.Equal(t, "Ayr", r1.Origin)

	routes, err = client.RoutesByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, routes)

	routes, err = client.ServiceRoutes(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, routes, 1)
	assert.Equal(t, "14", routes[0].LineName)
}

func TestCalendarsForRoutes(t *testing.T) {
	client := importTestFeed(t)
	ctx := context.Background()

	calendars, err := client.CalendarsForRoutes(ctx, []string{"r1"})
	require.NoError(t, err)
	require.Len(t, calendars, 1)

	cal := calendars[0]
	assert.Equal(t, "weekdays", cal.ID)
	assert.True(t, cal.Monday)
	assert.False(t, cal.Sunday)
	require.NotNil(t, cal.EndDate)
	assert.Equal(t, day(2024, 12, 31), *cal.EndDate)
	require.Len(t, cal.Dates, 2)
	assert.False(t, cal.Dates[0].Operation)
	assert.True(t, cal.Dates[1].Special)

	// the calendar behaves the same after the round trip through storage
	assert.False(t, calendar.IsActive(&cal, day(2024, 4, 3), nil))
	assert.True(t, calendar.IsActive(&cal, day(2024, 4, 6), nil))
	assert.True(t, calendar.IsActive(&cal, day(2024, 4, 15), nil))

	calendars, err = client.CalendarsForRoutes(ctx, []string{"r1", "r2"})
	require.NoError(t, err)
	assert.Len(t, calendars, 2)

	calendars, err = client.CalendarsForRoutes(ctx, []string{"nope"})
	require.NoError(t, err)
	assert.Empty(t, calendars)
}

func TestBankHolidays(t *testing.T) {
	client := importTestFeed(t)
	ctx := context.Background()

	err := client.ImportBankHolidays(ctx, map[string][]time.Time{
		"ChristmasDay": {day(2024, 12, 25), day(2025, 12, 25)},
		"BoxingDay":    {day(2024, 12, 26)},
		"NewYearsDay":  {day(2025, 1, 1)},
	}, []BankHolidayRule{
		{CalendarID: "weekdays", BankHoliday: "ChristmasDay", Operation: false},
		{CalendarID: "weekdays", BankHoliday: "BoxingDay", Operation: true},
	})
	require.NoError(t, err)

	holidays, err := client.BankHolidays(ctx, day(2024, 12, 1), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, calendar.BankHolidays{
		day(2024, 12, 25): {"ChristmasDay"},
		day(2024, 12, 26): {"BoxingDay"},
	}, holidays)

	calendars, err := client.CalendarsForRoutes(ctx, []string{"r1"})
	require.NoError(t, err)
	require.Len(t, calendars, 1)
	assert.Equal(t, []models.CalendarBankHoliday{
		{BankHoliday: "BoxingDay", Operation: true},
		{BankHoliday: "ChristmasDay", Operation: false},
	}, calendars[0].BankHolidays)

	// Christmas Day 2024 is a Wednesday
	assert.False(t, calendar.IsActive(&calendars[0], day(2024, 12, 25), holidays))

	// a second import replaces the first
	require.NoError(t, client.ImportBankHolidays(ctx, nil, nil))
	holidays, err = client.BankHolidays(ctx, day(2024, 1, 1), day(2025, 12, 31))
	require.NoError(t, err)
	assert.Empty(t, holidays)
}

func TestTripsForRoutes(t *testing.T) {
	client := importTestFeed(t)
	ctx := context.Background()

	trips, err := client.TripsForRoutes(ctx, []string{"r1"}, []string{"weekdays"})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	early, late := trips[0], trips[1]
	assert.Equal(t, "t1", early.ID)
	assert.Equal(t, 8*time.Hour, early.Start)
	assert.Len(t, early.StopTimes, 2)
	assert.Empty(t, early.Notes)

	assert.Equal(t, "t2", late.ID)
	assert.Equal(t, "B1", late.Block)
	assert.Equal(t, "ETM2", late.ExternalRef())
	require.Len(t, late.StopTimes, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{late.StopTimes[0].Sequence, late.StopTimes[1].Sequence, late.StopTimes[2].Sequence})
	last := late.StopTimes[2]
	assert.Equal(t, "TRN1", last.StopCode)
	assert.Equal(t, "t2", last.TripID)
	assert.Equal(t, models.NewNullDuration(9*time.Hour+20*time.Minute), last.Arrival)
	assert.False(t, last.Departure.Valid)
	assert.True(t, last.IsSetDownOnly())
	assert.Equal(t, models.TimingPrincipal, last.TimingStatus)
	assert.Equal(t, []models.Note{{ID: "sd", Code: "S", Text: "Schooldays only"}}, late.Notes)

	trips, err = client.TripsForRoutes(ctx, []string{"r1"}, []string{"sundays"})
	require.NoError(t, err)
	assert.Empty(t, trips)

	trips, err = client.TripsForRoutes(ctx, []string{"r1"}, nil)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestStopsByCodes(t *testing.T) {
	client := importTestFeed(t)
	ctx := context.Background()

	stops, err := client.StopsByCodes(ctx, []string{"AYR1", "PRE1"})
	require.NoError(t, err)
	require.Len(t, stops, 1)
	assert.Equal(t, "Ayr Bus Station (stance 3)", stops["AYR1"].DisplayName())

	require.NoError(t, client.SetStopSuspended(ctx, "TRN1", true))
	stops, err = client.StopsByCodes(ctx, []string{"TRN1"})
	require.NoError(t, err)
	assert.True(t, stops["TRN1"].Suspended)

	assert.ErrorIs(t, client.SetStopSuspended(ctx, "PRE1", true), ErrNotFound)

	stops, err = client.StopsByCodes(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, stops)
}
