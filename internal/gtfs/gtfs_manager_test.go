package gtfs

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"timetables.bustimes.org/gtfsdb"
	"timetables.bustimes.org/internal/appconf"
	"timetables.bustimes.org/internal/calendar"
)

func testManager(t *testing.T, config Config) *Manager {
	t.Helper()
	if config.GtfsURL == "" {
		config.GtfsURL = writeTestZip(t)
	}
	if config.GTFSDataPath == "" {
		config.GTFSDataPath = ":memory:"
	}
	config.Env = appconf.Test
	manager, err := InitGTFSManager(t.Context(), config)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)
	return manager
}

func TestInitGTFSManager(t *testing.T) {
	manager := testManager(t, Config{
		BankHolidays: map[string][]time.Time{"ChristmasDay": {day(2024, 12, 25)}},
		BankHolidayRules: []gtfsdb.BankHolidayRule{
			{CalendarID: "weekdays", BankHoliday: "ChristmasDay", Operation: false},
		},
		SuspendedStops: []string{"PRE1", "NOWHERE"},
	})
	ctx := t.Context()

	assert.False(t, manager.LastUpdated().IsZero())

	counts, err := manager.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["routes"])
	assert.Equal(t, 2, counts["trips"])
	assert.Equal(t, 5, counts["stop_times"])
	assert.Equal(t, 1, counts["calendar_bank_holidays"])

	stops, err := manager.GtfsDB.StopsByCodes(ctx, []string{"PRE1", "AYR1"})
	require.NoError(t, err)
	assert.True(t, stops["PRE1"].Suspended)
	assert.False(t, stops["AYR1"].Suspended)

	holidays, err := manager.GtfsDB.BankHolidays(ctx, day(2024, 12, 1), day(2024, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, calendar.BankHolidays{day(2024, 12, 25): {"ChristmasDay"}}, holidays)

	// realtime is off without a feed URL
	update, err := manager.TripUpdate(ctx, "14-out-1")
	assert.NoError(t, err)
	assert.Nil(t, update)
}

func TestInitGTFSManagerErrors(t *testing.T) {
	_, err := InitGTFSManager(t.Context(), Config{GtfsURL: "/no/such/gtfs.zip", GTFSDataPath: ":memory:"})
	assert.Error(t, err)

	_, err = InitGTFSManager(t.Context(), Config{
		GtfsURL:      writeTestZip(t),
		GTFSDataPath: "timetables.db",
		Env:          appconf.Test,
	})
	assert.ErrorIs(t, err, gtfsdb.ErrFileDBInTest)
}

func TestRemoteStaticFeed(t *testing.T) {
	body := buildTestZip(t)
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(body)
	}))
	defer server.Close()

	manager := testManager(t, Config{GtfsURL: server.URL, StaticRefresh: 20 * time.Millisecond})

	assert.Eventually(t, func() bool { return requests.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	counts, err := manager.Statistics(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, counts["trips"])
	assert.Equal(t, 1, counts["import_metadata"])
}

func TestShutdown(t *testing.T) {
	manager := testManager(t, Config{})

	done := make(chan struct{})
	go func() {
		manager.Shutdown()
		manager.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
