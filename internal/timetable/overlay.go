package timetable

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// Relationship is a stop time update's schedule relationship.
type Relationship uint8

const (
	RelationshipScheduled Relationship = iota
	RelationshipSkipped
	RelationshipNoData
)

// StopTimeUpdate is live data for one call, keyed by stop sequence.
type StopTimeUpdate struct {
	StopSequence   int
	Relationship   Relationship
	ArrivalDelay   *time.Duration
	DepartureDelay *time.Duration
}

// TripUpdate is live data for one trip.
type TripUpdate struct {
	Canceled        bool
	StopTimeUpdates []StopTimeUpdate
}

// LiveFeed looks up live data by a trip's external reference. It returns nil
// without an error when the feed has nothing for the trip.
type LiveFeed interface {
	TripUpdate(ctx context.Context, tripRef string) (*TripUpdate, error)
}

// ApplyLive annotates visits with cancellations and expected times. Lookup
// failures are logged and skipped. It returns the number of trips changed.
func (g *Grouping) ApplyLive(ctx context.Context, feed LiveFeed) (int, error) {
	if g.state != StateSorted {
		return 0, fmt.Errorf("%w: live data applies to sorted groupings, not %s", ErrInvalidTransition, g.state)
	}
	if feed == nil {
		return 0, nil
	}
	logger := logging.FromContext(ctx).With(slog.String("component", "live_overlay"))

	changed := 0
	for x, trip := range g.Trips {
		update, err := feed.TripUpdate(ctx, trip.ExternalRef())
		if err != nil {
			logger.Warn("live trip lookup failed",
				slog.String("trip_id", trip.ID),
				slog.String("error", err.Error()))
			continue
		}
		if update == nil {
			continue
		}
		if applyTripUpdate(g.columnVisits(x), update) {
			g.live[x] = true
			changed++
		}
	}
	return changed, nil
}

// columnVisits returns column x's visits top to bottom.
func (g *Grouping) columnVisits(x int) []*Visit {
	var visits []*Visit
	for y := range g.order {
		if v := g.visitAt(y, x); v != nil {
			visits = append(visits, v)
		}
	}
	return visits
}

// applyTripUpdate applies an update to one trip's visits, in stop order.
// A skipped call is cancelled on its own; delays carry forward from the latest
// update at or before each call.
func applyTripUpdate(visits []*Visit, update *TripUpdate) bool {
	if update.Canceled {
		for _, v := range visits {
			v.Cancelled = true
		}
		return len(visits) > 0
	}
	if len(update.StopTimeUpdates) == 0 {
		return false
	}

	bySequence := make(map[int]*StopTimeUpdate, len(update.StopTimeUpdates))
	for i := range update.StopTimeUpdates {
		stu := &update.StopTimeUpdates[i]
		bySequence[stu.StopSequence] = stu
	}

	changed := false
	var current *StopTimeUpdate
	for _, v := range visits {
		if stu, ok := bySequence[v.StopTime.Sequence]; ok {
			if stu.Relationship == RelationshipSkipped {
				v.Cancelled = true
				changed = true
				continue
			}
			current = stu
		}
		if current == nil || current.Relationship == RelationshipNoData {
			continue
		}
		if v.Arrival.Valid && current.ArrivalDelay != nil {
			v.ExpectedArrival = models.NewNullDuration(v.Arrival.Duration + *current.ArrivalDelay)
			changed = true
		}
		if v.Departure.Valid && current.DepartureDelay != nil {
			v.ExpectedDeparture = models.NewNullDuration(v.Departure.Duration + *current.DepartureDelay)
			changed = true
		}
	}
	return changed
}
