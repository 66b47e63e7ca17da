package gtfs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluele/gcache"
	"github.com/jamespfennell/gtfs"
	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/timetable"
)

const tripUpdateCacheSize = 50000

func newTripUpdateCache(ttl time.Duration) gcache.Cache {
	return gcache.New(tripUpdateCacheSize).
		LRU().
		Expiration(ttl).
		Build()
}

// decodeTripUpdates reads a GTFS-realtime FeedMessage into updates keyed by
// trip ID. Stop time updates without a stop_sequence are dropped.
func decodeTripUpdates(b []byte) (map[string]*timetable.TripUpdate, error) {
	realtime, err := gtfs.ParseRealtime(b, &gtfs.ParseRealtimeOptions{})
	if err != nil {
		return nil, fmt.Errorf("error decoding GTFS-realtime feed: %w", err)
	}

	updates := make(map[string]*timetable.TripUpdate)
	for _, trip := range realtime.Trips {
		// trips only referenced by a vehicle position carry no update
		if !trip.IsEntityInMessage || trip.ID.ID == "" {
			continue
		}

		update := &timetable.TripUpdate{
			Canceled: trip.ID.ScheduleRelationship == gtfsrt.TripDescriptor_CANCELED,
		}
		for _, stu := range trip.StopTimeUpdates {
			if stu.StopSequence == nil {
				continue
			}
			update.StopTimeUpdates = append(update.StopTimeUpdates, timetable.StopTimeUpdate{
				StopSequence:   int(*stu.StopSequence),
				Relationship:   relationship(stu.ScheduleRelationship),
				ArrivalDelay:   stu.GetArrival().Delay,
				DepartureDelay: stu.GetDeparture().Delay,
			})
		}
		updates[trip.ID.ID] = update
	}
	return updates, nil
}

func relationship(r gtfs.StopTimeUpdateScheduleRelationship) timetable.Relationship {
	switch r {
	case gtfsrt.TripUpdate_StopTimeUpdate_SKIPPED:
		return timetable.RelationshipSkipped
	case gtfsrt.TripUpdate_StopTimeUpdate_NO_DATA:
		return timetable.RelationshipNoData
	default:
		return timetable.RelationshipScheduled
	}
}

// TripUpdate returns the latest live update for a trip, or nil when the feed
// has said nothing about it recently.
func (manager *Manager) TripUpdate(_ context.Context, tripRef string) (*timetable.TripUpdate, error) {
	manager.realTimeMutex.RLock()
	cache := manager.tripUpdates
	manager.realTimeMutex.RUnlock()
	if cache == nil {
		return nil, nil
	}
	value, err := cache.Get(tripRef)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	update, ok := value.(*timetable.TripUpdate)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for trip %s", tripRef)
	}
	return update, nil
}

// RealtimeUpdated is when trip updates were last decoded.
func (manager *Manager) RealtimeUpdated() time.Time {
	manager.realTimeMutex.RLock()
	defer manager.realTimeMutex.RUnlock()
	return manager.realTimeUpdated
}

func (manager *Manager) updateGTFSRealtime(ctx context.Context) error {
	headers := map[string]string{}
	if manager.config.RealTimeAuthHeaderKey != "" && manager.config.RealTimeAuthHeaderValue != "" {
		headers[manager.config.RealTimeAuthHeaderKey] = manager.config.RealTimeAuthHeaderValue
	}

	b, err := rawData(ctx, manager.config.TripUpdatesURL, headers)
	if err != nil {
		return err
	}
	updates, err := decodeTripUpdates(b)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	// each poll replaces the feed, so trips that dropped out are forgotten
	cache := newTripUpdateCache(manager.config.realTimeTTL())
	for tripID, update := range updates {
		if err := cache.Set(tripID, update); err != nil {
			return fmt.Errorf("error caching trip update %s: %w", tripID, err)
		}
	}

	manager.realTimeMutex.Lock()
	manager.tripUpdates = cache
	manager.realTimeUpdated = time.Now()
	manager.realTimeMutex.Unlock()

	if manager.config.Verbose {
		logging.LogOperation(logging.FromContext(ctx), "gtfs_realtime_loaded",
			slog.Int("trip_updates", len(updates)))
	}
	return nil
}

func (manager *Manager) updateGTFSRealtimePeriodically() {
	defer manager.wg.Done()

	logger := manager.logger.With(slog.String("component", "gtfs_realtime_updater"))

	ticker := time.NewTicker(manager.config.realTimeRefresh())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			err := manager.updateGTFSRealtime(logging.WithLogger(ctx, logger))
			cancel()
			if err != nil {
				logging.LogError(logger, "Error loading GTFS-RT trip updates data", err,
					slog.String("url", manager.config.TripUpdatesURL))
			}
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_realtime_updates")
			return
		}
	}
}
