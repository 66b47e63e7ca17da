package timetable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"timetables.bustimes.org/internal/models"
)

func clock(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// makeTrip returns a trip calling at codes two minutes apart from start.
func makeTrip(id string, start time.Duration, codes ...string) *models.Trip {
	trip := &models.Trip{
		ID:             id,
		RouteID:        "r1",
		JourneyPattern: "jp1",
		Destination:    "Town Centre",
	}
	for i, code := range codes {
		at := models.NewNullDuration(start + time.Duration(i)*2*time.Minute)
		trip.StopTimes = append(trip.StopTimes, models.StopTime{
			TripID:       id,
			Sequence:     i + 1,
			StopCode:     code,
			Arrival:      at,
			Departure:    at,
			PickUp:       true,
			SetDown:      true,
			TimingStatus: models.TimingPrincipal,
		})
	}
	trip.FillTimes()
	return trip
}

// everyMinutes returns n trips over codes, spaced by interval from start.
func everyMinutes(n int, start, interval time.Duration, codes ...string) []*models.Trip {
	trips := make([]*models.Trip, n)
	for i := range trips {
		trips[i] = makeTrip(string(rune('a'+i)), start+time.Duration(i)*interval, codes...)
	}
	return trips
}

func rowCodes(g *Grouping) []string {
	codes := make([]string, 0, len(g.order))
	for _, row := range g.Rows() {
		codes = append(codes, row.StopCode)
	}
	return codes
}

func tripIDs(g *Grouping) []string {
	ids := make([]string, len(g.Trips))
	for i, trip := range g.Trips {
		ids[i] = trip.ID
	}
	return ids
}

// sorted aligns and sorts trips into an outbound grouping.
func sorted(t *testing.T, trips ...*models.Trip) *Grouping {
	t.Helper()
	g := NewGrouping(false)
	require.NoError(t, g.AlignTrips(trips))
	require.NoError(t, g.Sort())
	return g
}

// compressed runs trips up to compression, without live data.
func compressed(t *testing.T, trips ...*models.Trip) *Grouping {
	t.Helper()
	g := sorted(t, trips...)
	_, err := g.Compress(nil)
	require.NoError(t, err)
	return g
}

type fakeFeed struct {
	updates map[string]*TripUpdate
	errs    map[string]error
	lookups []string
}

func (f *fakeFeed) TripUpdate(_ context.Context, tripRef string) (*TripUpdate, error) {
	f.lookups = append(f.lookups, tripRef)
	if err := f.errs[tripRef]; err != nil {
		return nil, err
	}
	return f.updates[tripRef], nil
}

func durationPtr(d time.Duration) *time.Duration {
	return &d
}
