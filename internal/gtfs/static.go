package gtfs

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jamespfennell/gtfs"
	"timetables.bustimes.org/gtfsdb"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

func isLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// rawData reads a local file or downloads a URL.
func rawData(ctx context.Context, source string, headers map[string]string) ([]byte, error) {
	if isLocalFile(source) {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Add(key, value)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading %s: %w", source, err)
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "gtfs_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading %s: status %d", source, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	return b, nil
}

// parseStatic parses a GTFS zip and converts it to the stored feed.
func parseStatic(b []byte) (gtfsdb.Feed, error) {
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return gtfsdb.Feed{}, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return convertStatic(staticData), nil
}

// convertStatic maps GTFS onto the timetable models. Stop IDs double as stop
// codes, services become calendars, and direction_id 1 is inbound.
func convertStatic(static *gtfs.Static) gtfsdb.Feed {
	var feed gtfsdb.Feed

	for _, s := range static.Stops {
		feed.Stops = append(feed.Stops, models.NewStop(s.Id, s.Id, s.Name, s.PlatformCode))
	}

	for _, s := range static.Services {
		feed.Calendars = append(feed.Calendars, convertService(s))
	}
	slices.SortFunc(feed.Calendars, func(a, b models.Calendar) int { return cmp.Compare(a.ID, b.ID) })

	ranges := map[string]*dateRange{}
	for i := range static.Trips {
		st := &static.Trips[i]
		if st.Route == nil || st.Service == nil {
			continue
		}
		trip, ok := convertTrip(st)
		if !ok {
			continue
		}
		feed.Trips = append(feed.Trips, trip)

		r, ok := ranges[st.Route.Id]
		if !ok {
			r = &dateRange{}
			ranges[st.Route.Id] = r
		}
		r.extend(models.Date(st.Service.StartDate), models.Date(st.Service.EndDate))
	}

	for _, r := range static.Routes {
		route := convertRoute(r)
		if dates, ok := ranges[r.Id]; ok {
			route.StartDate, route.EndDate = dates.bounds()
		}
		feed.Routes = append(feed.Routes, route)
	}
	slices.SortFunc(feed.Routes, func(a, b models.Route) int { return cmp.Compare(a.ID, b.ID) })

	return feed
}

func convertRoute(r gtfs.Route) models.Route {
	route := models.Route{
		ID:        r.Id,
		ServiceID: r.Id,
		LineName:  cmp.Or(r.ShortName, r.LongName, r.Id),
		Code:      r.Id,
	}

	// "Ayr - Prestwick - Troon" names the termini and the places between
	places := strings.Split(r.LongName, " - ")
	if len(places) >= 2 {
		route.Origin = places[0]
		route.Destination = places[len(places)-1]
		route.Via = strings.Join(places[1:len(places)-1], ", ")
		route.OutboundDescription = r.LongName
		slices.Reverse(places)
		route.InboundDescription = strings.Join(places, " - ")
	}
	return route
}

func convertService(s gtfs.Service) models.Calendar {
	end := models.Date(s.EndDate)
	c := models.Calendar{
		ID:        s.Id,
		Monday:    s.Monday,
		Tuesday:   s.Tuesday,
		Wednesday: s.Wednesday,
		Thursday:  s.Thursday,
		Friday:    s.Friday,
		Saturday:  s.Saturday,
		Sunday:    s.Sunday,
		StartDate: models.Date(s.StartDate),
		EndDate:   &end,
	}
	for _, d := range s.AddedDates {
		day := models.Date(d)
		c.Dates = append(c.Dates, models.CalendarDate{StartDate: day, EndDate: day, Operation: true, Special: true})
	}
	for _, d := range s.RemovedDates {
		day := models.Date(d)
		c.Dates = append(c.Dates, models.CalendarDate{StartDate: day, EndDate: day})
	}
	slices.SortStableFunc(c.Dates, func(a, b models.CalendarDate) int { return a.StartDate.Compare(b.StartDate) })
	return c
}

func convertTrip(st *gtfs.ScheduledTrip) (models.Trip, bool) {
	if len(st.StopTimes) == 0 {
		return models.Trip{}, false
	}
	trip := models.Trip{
		ID:          st.ID,
		RouteID:     st.Route.Id,
		CalendarID:  st.Service.Id,
		Inbound:     int(st.DirectionId) == 1,
		Destination: st.Headsign,
		Block:       st.BlockID,
	}

	pattern := fnv.New64a()
	for _, sst := range st.StopTimes {
		if sst.Stop == nil {
			continue
		}
		_, _ = pattern.Write([]byte(sst.Stop.Id + "\x00"))

		status := models.TimingPrincipal
		if !sst.ExactTimes {
			status = models.TimingOther
		}
		trip.StopTimes = append(trip.StopTimes, models.StopTime{
			TripID:       st.ID,
			Sequence:     sst.StopSequence,
			StopCode:     sst.Stop.Id,
			StopID:       sst.Stop.Id,
			Arrival:      models.NewNullDuration(sst.ArrivalTime),
			Departure:    models.NewNullDuration(sst.DepartureTime),
			PickUp:       int(sst.PickupType) != 1,
			SetDown:      int(sst.DropOffType) != 1,
			TimingStatus: status,
		})
	}
	if len(trip.StopTimes) == 0 {
		return models.Trip{}, false
	}
	trip.JourneyPattern = strconv.FormatUint(pattern.Sum64(), 16)
	trip.FillTimes()
	return trip, true
}

type dateRange struct {
	start, end time.Time
	set        bool
}

func (r *dateRange) extend(start, end time.Time) {
	if !r.set {
		r.start, r.end, r.set = start, end, true
		return
	}
	if start.Before(r.start) {
		r.start = start
	}
	if end.After(r.end) {
		r.end = end
	}
}

func (r *dateRange) bounds() (*time.Time, *time.Time) {
	if !r.set {
		return nil, nil
	}
	start, end := r.start, r.end
	return &start, &end
}

func contentHash(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// importStatic loads the static feed and imports it when it has changed.
func (manager *Manager) importStatic(ctx context.Context) error {
	logger := manager.logger.With(slog.String("component", "gtfs_static"))

	b, err := rawData(ctx, manager.config.GtfsURL, nil)
	if err != nil {
		return err
	}
	feed, err := parseStatic(b)
	if err != nil {
		return err
	}

	imported, err := manager.GtfsDB.ImportFeedWithSource(ctx, feed, manager.config.GtfsURL, contentHash(b))
	if err != nil {
		return fmt.Errorf("error importing GTFS data: %w", err)
	}
	if imported {
		for _, code := range manager.config.SuspendedStops {
			if err := manager.GtfsDB.SetStopSuspended(ctx, code, true); err != nil {
				logger.Warn("suspended stop not in feed", slog.String("stop_code", code))
			}
		}
	}

	manager.staticMutex.Lock()
	manager.lastUpdated = time.Now()
	manager.staticMutex.Unlock()

	if manager.config.Verbose {
		logging.LogOperation(logger, "gtfs_static_loaded",
			slog.String("source", manager.config.GtfsURL),
			slog.Bool("imported", imported),
			slog.Int("trips", len(feed.Trips)))
	}
	return nil
}

// updateStaticGTFS re-reads a remote static feed on a regular schedule.
func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	logger := manager.logger.With(slog.String("component", "gtfs_static_updater"))

	ticker := time.NewTicker(manager.config.staticRefresh())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			err := manager.importStatic(logging.WithLogger(ctx, logger))
			cancel()
			if err != nil {
				logging.LogError(logger, "Error updating GTFS data", err,
					slog.String("source", manager.config.GtfsURL))
			}
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_updates")
			return
		}
	}
}
