package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gtfsrtpb "github.com/jamespfennell/gtfs/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"timetables.bustimes.org/internal/models"
)

func TestTimetableHandlerPinsSimpleCalendar(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.TimetableEntry
	resp := retrieveEntry(t, api, "/api/timetable/14?key=TEST", &entry)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	assert.Nil(t, entry.Date)
	require.NotNil(t, entry.Calendar)
	assert.Equal(t, "weekdays", entry.Calendar.ID)
	assert.Equal(t, "Monday to Friday", entry.Calendar.Description)
	assert.Len(t, entry.Groupings, 2)
}

func TestTimetableHandler(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.TimetableEntry
	retrieveEntry(t, api, "/api/timetable/14?key=TEST&date=2024-03-05", &entry)

	require.NotNil(t, entry.Date)
	assert.Equal(t, "2024-03-05", *entry.Date)
	assert.Nil(t, entry.Calendar)
	assert.False(t, entry.Expired)
	assert.True(t, entry.HasExtraColumns)
	assert.False(t, entry.HasSetDownOnly)

	require.Len(t, entry.Routes, 1)
	assert.Equal(t, "14", entry.Routes[0].LineName)
	require.NotNil(t, entry.Routes[0].EndDate)
	assert.Equal(t, "2024-12-31", *entry.Routes[0].EndDate)
	assert.Equal(t, []models.DescriptionEntry{{Outbound: "Ayr - Prestwick - Troon", Inbound: "Troon - Prestwick - Ayr"}}, entry.Descriptions)

	// weekdays from Monday 4th to Monday 25th
	require.Len(t, entry.DateOptions, 16)
	assert.Equal(t, "2024-03-04", entry.DateOptions[0])
	assert.Equal(t, "2024-03-25", entry.DateOptions[15])
	assert.Contains(t, entry.DateOptions, "2024-03-05")
	assert.NotContains(t, entry.DateOptions, "2024-03-09")

	require.Len(t, entry.Groupings, 2)
	outbound, inbound := entry.Groupings[0], entry.Groupings[1]
	assert.False(t, outbound.Inbound)
	assert.True(t, inbound.Inbound)

	require.Len(t, outbound.Columns, 5)
	assert.Equal(t, "14-out-1", outbound.Columns[0].TripID)
	assert.Equal(t, "B1", outbound.Columns[0].Block)
	assert.Equal(t, []models.HeadEntry{{RouteID: "14", LineName: "14", Span: 5}}, outbound.Heads)
	assert.True(t, outbound.HasMinorStops)

	require.Len(t, outbound.Rows, 3)
	first, minor, last := outbound.Rows[0], outbound.Rows[1], outbound.Rows[2]
	assert.Equal(t, "AYR1", first.StopCode)
	assert.Equal(t, "Ayr Bus Station (3)", first.Name)
	assert.True(t, minor.Minor)
	assert.Equal(t, models.TimingOther, minor.TimingStatus)
	assert.Equal(t, "Troon Cross", last.Name)

	// all five trips collapse into one cell starting 07:00 and repeating every 20 minutes
	require.Len(t, first.Cells, 1)
	rep := first.Cells[0]
	assert.Equal(t, models.CellKindRepetition, rep.Kind)
	assert.Equal(t, 5, rep.Colspan)
	assert.Equal(t, 3, rep.Rowspan)
	assert.Equal(t, 20, rep.Interval)
	assert.Equal(t, "then every 20 minutes until", rep.Text)
	assert.Equal(t, []string{"07:00", "07:10", "07:20"}, rep.FirstTimes)

	assert.Empty(t, minor.Cells)
	assert.Empty(t, last.Cells)

	require.Len(t, inbound.Columns, 1)
	require.Len(t, inbound.Rows, 2)
	assert.Equal(t, "TRN1", inbound.Rows[0].StopCode)
	assert.Equal(t, "09:20", inbound.Rows[1].Cells[0].Arrival)
}

func TestTimetableHandlerMultipleRoutes(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.TimetableEntry
	retrieveEntry(t, api, "/api/timetable/14,X77,14?key=TEST&date=2024-03-05", &entry)
	assert.Len(t, entry.Routes, 2)
	assert.Len(t, entry.Groupings, 2)
}

func TestTimetableHandlerRouteWithoutTrips(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.TimetableEntry
	retrieveEntry(t, api, "/api/timetable/X77?key=TEST", &entry)
	assert.Empty(t, entry.Groupings)
	assert.Empty(t, entry.DateOptions)
}

func TestTimetableHandlerWithLiveData(t *testing.T) {
	feed, err := proto.Marshal(&gtfsrtpb.FeedMessage{
		Header: &gtfsrtpb.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")},
		Entity: []*gtfsrtpb.FeedEntity{{
			Id: proto.String("1"),
			TripUpdate: &gtfsrtpb.TripUpdate{
				Trip: &gtfsrtpb.TripDescriptor{TripId: proto.String("14-out-3")},
				StopTimeUpdate: []*gtfsrtpb.TripUpdate_StopTimeUpdate{{
					StopSequence: proto.Uint32(1),
					Arrival:      &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: proto.Int32(120)},
					Departure:    &gtfsrtpb.TripUpdate_StopTimeEvent{Delay: proto.Int32(120)},
				}},
			},
		}},
	})
	require.NoError(t, err)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(feed)
	}))
	defer server.Close()

	api := createTestApi(t, server.URL)

	var entry models.TimetableEntry
	retrieveEntry(t, api, "/api/timetable/14?key=TEST&date=2024-03-05", &entry)

	outbound := entry.Groupings[0]
	// the live column splits the trips into two runs of two
	first := outbound.Rows[0]
	require.Len(t, first.Cells, 3)
	assert.Equal(t, models.CellKindRepetition, first.Cells[0].Kind)
	assert.Equal(t, 2, first.Cells[0].Colspan)
	assert.Equal(t, []string{"07:00", "07:10", "07:20"}, first.Cells[0].FirstTimes)
	delayed := first.Cells[1]
	assert.Equal(t, models.CellKindVisit, delayed.Kind)
	assert.Equal(t, "07:40", delayed.Departure)
	assert.Equal(t, "07:42", delayed.ExpectedDeparture)
	assert.Equal(t, models.CellKindRepetition, first.Cells[2].Kind)
	assert.Equal(t, []string{"08:00", "08:10", "08:20"}, first.Cells[2].FirstTimes)

	require.Len(t, outbound.Rows[2].Cells, 1)
	assert.Equal(t, "08:02", outbound.Rows[2].Cells[0].ExpectedArrival)
}

func TestTimetableHandlerErrors(t *testing.T) {
	api := createTestApi(t, "")

	t.Run("unknown route", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/timetable/nope?key=TEST")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "resource not found", model.Text)
	})

	t.Run("missing API key", func(t *testing.T) {
		resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/timetable/14")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "permission denied", model.Text)
	})

	tests := []struct {
		name     string
		endpoint string
		field    string
	}{
		{"invalid route id", "/api/timetable/14..X?key=TEST", "routes"},
		{"empty route in list", "/api/timetable/14,,X77?key=TEST", "routes"},
		{"invalid date", "/api/timetable/14?key=TEST&date=2024-13-01", "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(api.Handler())
			defer server.Close()

			resp, err := http.Get(server.URL + tt.endpoint)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body struct {
				FieldErrors map[string][]string `json:"fieldErrors"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.FieldErrors[tt.field])
		})
	}
}

func TestTimetableDatesHandler(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.DateOptionsEntry
	retrieveEntry(t, api, "/api/timetable-dates/14?key=TEST", &entry)
	assert.False(t, entry.Expired)
	require.Len(t, entry.Dates, 16)
	assert.Equal(t, "2024-03-04", entry.Dates[0])
}

func TestCurrentTimeHandler(t *testing.T) {
	api := createTestApi(t, "")

	var entry models.CurrentTimeModel
	retrieveEntry(t, api, "/api/current-time.json?key=TEST", &entry)
	assert.NotZero(t, entry.Time)
	assert.Len(t, entry.Date, len("2006-01-02"))
}

func TestUnknownPathIsNotFound(t *testing.T) {
	api := createTestApi(t, "")
	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/where/nothing?key=TEST")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}
