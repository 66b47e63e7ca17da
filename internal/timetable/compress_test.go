package timetable

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timetables.bustimes.org/internal/models"
)

func TestCompressEveryTenMinutes(t *testing.T) {
	g := compressed(t, everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B", "C", "D")...)

	reps := g.Repetitions()
	require.Len(t, reps, 1)
	rep := reps[0]
	require.NotNil(t, rep)

	assert.Equal(t, 5, rep.Colspan)
	assert.Equal(t, 10*time.Minute, rep.Interval)
	assert.Equal(t, 4, rep.Rowspan)
	assert.Equal(t, "then every 10 minutes until", rep.Text())
	assert.Equal(t, []models.NullDuration{
		models.NewNullDuration(clock(9, 0)),
		models.NewNullDuration(clock(9, 2)),
		models.NewNullDuration(clock(9, 4)),
		models.NewNullDuration(clock(9, 6)),
	}, rep.Times)

	top := g.Rows()[0]
	assert.Equal(t, CellRepetition, top.Cells[0].Kind)
	for x := 1; x < 5; x++ {
		assert.Equal(t, cellCovered, top.Cells[x].Kind)
	}
	assert.Equal(t, 5, g.Width())
}

func TestRepetitionExpandRoundTrip(t *testing.T) {
	for _, interval := range []time.Duration{5 * time.Minute, 10 * time.Minute, 30 * time.Minute, time.Hour} {
		t.Run(interval.String(), func(t *testing.T) {
			g := compressed(t, everyMinutes(6, clock(7, 15), interval, "A", "B", "C")...)
			reps := g.Repetitions()
			require.Len(t, reps, 1)

			for first, rep := range reps {
				base := g.Trips[first]
				for k := range rep.Colspan {
					trip := g.Trips[first+k]
					for i := range trip.StopTimes {
						assert.Equal(t, trip.StopTimes[i].Arrival, rep.Expand(base.StopTimes[i].Arrival, k))
						assert.Equal(t, trip.StopTimes[i].Arrival, rep.Expand(rep.Times[i], k))
					}
				}
				assert.False(t, rep.Expand(rep.Times[0], rep.Colspan).Valid)
				assert.False(t, rep.Expand(models.NullDuration{}, 0).Valid)
			}
		})
	}
}

func TestCompressShortRuns(t *testing.T) {
	assert.Empty(t, compressed(t, everyMinutes(1, clock(9, 0), 10*time.Minute, "A", "B")...).Repetitions())

	for _, n := range []int{2, 3} {
		g := compressed(t, everyMinutes(n, clock(9, 0), 10*time.Minute, "A", "B")...)
		reps := g.Repetitions()
		require.Len(t, reps, 1)
		assert.Equal(t, n, reps[0].Colspan)
	}
}

func TestCompressIntervals(t *testing.T) {
	testCases := []struct {
		name     string
		interval time.Duration
		want     string
	}{
		{name: "Hourly", interval: time.Hour, want: "then hourly until"},
		{name: "HalfHourly", interval: 30 * time.Minute, want: "then every 30 minutes until"},
		{name: "FortyFiveMinutes", interval: 45 * time.Minute},
		{name: "TwoHours", interval: 2 * time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := compressed(t, everyMinutes(5, clock(6, 0), tc.interval, "A", "B", "C", "D")...)
			reps := g.Repetitions()
			if tc.want == "" {
				assert.Empty(t, reps)
				return
			}
			require.Len(t, reps, 1)
			assert.Equal(t, tc.want, reps[0].Text())
		})
	}
}

// assertSplitAtMiddle checks that five trips with an odd one out in the middle
// compress into two runs of two either side of it.
func assertSplitAtMiddle(t *testing.T, g *Grouping) {
	t.Helper()
	reps := g.Repetitions()
	require.Len(t, reps, 2)
	assert.Equal(t, 2, reps[0].Colspan)
	assert.Equal(t, 2, reps[3].Colspan)
	assert.Equal(t, CellVisit, g.Rows()[0].Cells[2].Kind)
}

func TestCompressBreaksRuns(t *testing.T) {
	t.Run("UnevenGap", func(t *testing.T) {
		trips := everyMinutes(4, clock(9, 0), 10*time.Minute, "A", "B")
		trips = append(trips, everyMinutes(4, clock(10, 0), 15*time.Minute, "A", "B")...)
		for i, trip := range trips {
			trip.ID = string(rune('a' + i))
		}
		g := compressed(t, trips...)

		reps := g.Repetitions()
		require.Len(t, reps, 2)
		assert.Equal(t, 10*time.Minute, reps[0].Interval)
		assert.Equal(t, 4, reps[0].Colspan)
		assert.Equal(t, 15*time.Minute, reps[4].Interval)
		assert.Equal(t, 4, reps[4].Colspan)
	})

	t.Run("IrregularGapStartsNextRun", func(t *testing.T) {
		g := compressed(t,
			makeTrip("a", clock(6, 0), "A", "B"),
			makeTrip("b", clock(6, 45), "A", "B"),
			makeTrip("c", clock(7, 0), "A", "B"),
			makeTrip("d", clock(7, 15), "A", "B"),
		)
		reps := g.Repetitions()
		require.Len(t, reps, 1)
		assert.Equal(t, 3, reps[1].Colspan)
		assert.Equal(t, 15*time.Minute, reps[1].Interval)
		assert.Equal(t, CellVisit, g.Rows()[0].Cells[0].Kind)
	})

	t.Run("DifferentDestination", func(t *testing.T) {
		trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B")
		trips[2].Destination = "Elsewhere"
		assertSplitAtMiddle(t, compressed(t, trips...))
	})

	t.Run("DifferentNotes", func(t *testing.T) {
		trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B")
		trips[2].Notes = []models.Note{{ID: "n1", Code: "S", Text: "Schooldays only"}}
		assertSplitAtMiddle(t, compressed(t, trips...))
	})

	t.Run("DifferentRoute", func(t *testing.T) {
		trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B")
		trips[2].RouteID = "r2"
		assertSplitAtMiddle(t, compressed(t, trips...))
	})

	t.Run("NoJourneyPattern", func(t *testing.T) {
		trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B")
		for _, trip := range trips {
			trip.JourneyPattern = ""
		}
		assert.Empty(t, compressed(t, trips...).Repetitions())
	})

	t.Run("LiveData", func(t *testing.T) {
		trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B")
		g := sorted(t, trips...)
		feed := &fakeFeed{updates: map[string]*TripUpdate{
			"c": {StopTimeUpdates: []StopTimeUpdate{{StopSequence: 1, ArrivalDelay: durationPtr(time.Minute)}}},
		}}
		changed, err := g.ApplyLive(context.Background(), feed)
		require.NoError(t, err)
		assert.Equal(t, 1, changed)

		_, err = g.Compress(nil)
		require.NoError(t, err)
		assertSplitAtMiddle(t, g)
	})
}

func TestCompressRemovesDuplicateColumns(t *testing.T) {
	trips := []*models.Trip{
		makeTrip("t1", clock(8, 0), "A", "B"),
		makeTrip("t1-copy", clock(8, 0), "A", "B"),
		makeTrip("t2", clock(9, 45), "A", "B"),
	}
	g := sorted(t, trips...)
	removed, err := g.Compress(nil)
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{"t1", "t2"}, tripIDs(g))
	for _, row := range g.Rows() {
		assert.Len(t, row.Cells, 2)
	}
	assert.Empty(t, g.Repetitions())
	require.Len(t, g.Heads, 1)
	assert.Equal(t, 2, g.Heads[0].Span)
}

func TestCompressWaitTimes(t *testing.T) {
	trips := everyMinutes(5, clock(9, 0), 10*time.Minute, "A", "B", "C")
	for _, trip := range trips {
		trip.StopTimes[1].Departure = models.NewNullDuration(trip.StopTimes[1].Arrival.Duration + time.Minute)
	}
	g := compressed(t, trips...)

	rows := g.Rows()
	assert.False(t, rows[0].HasWaitTimes)
	assert.True(t, rows[1].HasWaitTimes)
	assert.Equal(t, 2, rows[1].Height())

	reps := g.Repetitions()
	require.Len(t, reps, 1)
	assert.Equal(t, 4, reps[0].Rowspan)
	assert.Equal(t, "then every 10 minutes until", reps[0].Text())
}

func TestCompressHeads(t *testing.T) {
	trips := []*models.Trip{
		makeTrip("t1", clock(8, 0), "A", "B"),
		makeTrip("t2", clock(9, 0), "A", "B"),
		makeTrip("t3", clock(10, 0), "A", "B"),
	}
	trips[2].RouteID = "r2"
	routes := map[string]*models.Route{"r1": {ID: "r1", LineName: "1"}}

	g := sorted(t, trips...)
	_, err := g.Compress(routes)
	require.NoError(t, err)

	require.Len(t, g.Heads, 2)
	assert.Equal(t, "1", g.Heads[0].Route.LineName)
	assert.Equal(t, 2, g.Heads[0].Span)
	assert.Equal(t, "r2", g.Heads[1].Route.ID)
	assert.Equal(t, 1, g.Heads[1].Span)
}

func TestRepetitionText(t *testing.T) {
	testCases := []struct {
		name      string
		interval  time.Duration
		minHeight int
		want      string
	}{
		{name: "Hourly", interval: time.Hour, minHeight: 5, want: "then hourly until"},
		{name: "HourlyShort", interval: time.Hour, minHeight: 2, want: "then\u00a0hourly until"},
		{name: "Hours", interval: 2 * time.Hour, minHeight: 5, want: "then every 2 hours until"},
		{name: "Minutes", interval: 20 * time.Minute, minHeight: 4, want: "then every 20 minutes until"},
		{name: "ThreeRows", interval: 20 * time.Minute, minHeight: 3, want: "then every\u00a020\u00a0minutes until"},
		{name: "TwoRows", interval: 20 * time.Minute, minHeight: 2, want: "then\u00a0every 20\u00a0minutes\u00a0until"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rep := &Repetition{Interval: tc.interval, MinHeight: tc.minHeight}
			assert.Equal(t, tc.want, rep.Text())
		})
	}
}

func TestCompressOutOfOrder(t *testing.T) {
	g := NewGrouping(false)
	_, err := g.Compress(nil)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
