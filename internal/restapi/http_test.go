package restapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"timetables.bustimes.org/internal/app"
	"timetables.bustimes.org/internal/appconf"
	"timetables.bustimes.org/internal/gtfs"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// testToday is a Monday inside the test feed's weekday calendar.
var testToday = time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)

// createTestApi returns an API over testdata/ayr.zip with today pinned to
// testToday. tripUpdatesURL may be empty.
func createTestApi(t *testing.T, tripUpdatesURL string) *RestAPI {
	t.Helper()
	cfg := appconf.Default()
	cfg.Env = appconf.Test
	cfg.ApiKeys = []string{"TEST"}
	cfg.RateLimit = 1000
	cfg.Timetable.Timezone = "UTC"

	gtfsConfig := gtfs.Config{
		GtfsURL:         filepath.Join("../../testdata", "ayr.zip"),
		TripUpdatesURL:  tripUpdatesURL,
		RealTimeRefresh: time.Hour,
		GTFSDataPath:    ":memory:",
		Env:             appconf.Test,
	}
	manager, err := gtfs.InitGTFSManager(t.Context(), gtfsConfig)
	require.NoError(t, err)
	t.Cleanup(manager.Shutdown)

	logger := logging.NewStructuredLogger(io.Discard, slog.LevelInfo)
	builder := app.NewBuilder(cfg, time.UTC, manager, logger)
	builder.Today = func() time.Time { return testToday }

	api := NewRestAPI(&app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsConfig,
		Logger:      logger,
		GtfsManager: manager,
		Builder:     builder,
	})
	t.Cleanup(api.Shutdown)
	return api
}

// serveApiAndRetrieveEndpoint requests endpoint from the full handler and
// decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	var response models.ResponseModel
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	return resp, response
}

// retrieveEntry requests endpoint and decodes data.entry into entry.
func retrieveEntry(t *testing.T, api *RestAPI, endpoint string, entry any) *http.Response {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var envelope struct {
		Code int `json:"code"`
		Data struct {
			Entry json.RawMessage `json:"entry"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.Equal(t, http.StatusOK, envelope.Code)
	require.NoError(t, json.Unmarshal(envelope.Data.Entry, entry))
	return resp
}
