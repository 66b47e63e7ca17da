package timetable

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"timetables.bustimes.org/internal/models"
)

// CurrentRoutes picks the routes whose trips apply on date.
//
// With a single revision number the routes valid on date are kept. With
// several, each service keeps its highest revision that has started by date.
// A route valid for date alone replaces the others of its service.
func CurrentRoutes(routes []models.Route, date time.Time) []models.Route {
	if len(routes) == 0 {
		return nil
	}

	revisions := map[int]struct{}{}
	for _, r := range routes {
		revisions[r.RevisionNumber] = struct{}{}
	}

	var current []models.Route
	if len(revisions) == 1 {
		for _, r := range routes {
			if r.Contains(date) {
				current = append(current, r)
			}
		}
	} else {
		current = latestRevisions(routes, date)
	}

	overrides := map[string]bool{}
	for _, r := range current {
		if r.IsOverride(date) {
			overrides[r.ServiceKey()] = true
		}
	}
	if len(overrides) == 0 {
		return current
	}
	return slices.DeleteFunc(current, func(r models.Route) bool {
		return overrides[r.ServiceKey()] && !r.IsOverride(date)
	})
}

func latestRevisions(routes []models.Route, date time.Time) []models.Route {
	sorted := slices.Clone(routes)
	slices.SortStableFunc(sorted, func(a, b models.Route) int {
		return cmp.Compare(a.RevisionNumber, b.RevisionNumber)
	})

	// a service whose revisions all start after date has no current route
	latest := map[string]int{}
	for _, r := range sorted {
		if r.StartDate != nil && r.StartDate.After(date) {
			continue
		}
		key := r.ServiceKey()
		if rev, seen := latest[key]; !seen || r.RevisionNumber > rev {
			latest[key] = r.RevisionNumber
		}
	}

	var current []models.Route
	for _, r := range sorted {
		if rev, ok := latest[r.ServiceKey()]; ok && r.RevisionNumber == rev {
			current = append(current, r)
		}
	}
	return current
}

// Descriptions returns the distinct outbound/inbound description pairs and
// the routes' origin, via and destination names. Chained journeys, where one
// ends where another starts, are joined, and two journeys sharing an end are
// merged as "A or B".
func Descriptions(routes []models.Route) (pairs [][2]string, journeys [][]string) {
	seenPairs := map[[2]string]bool{}
	for _, r := range routes {
		pair := [2]string{r.OutboundDescription, r.InboundDescription}
		if pair[0] != pair[1] && !seenPairs[pair] {
			seenPairs[pair] = true
			pairs = append(pairs, pair)
		}
	}

	seen := map[string]bool{}
	for _, r := range routes {
		if r.Origin == "" || r.Destination == "" {
			continue
		}
		var parts []string
		for _, p := range []string{r.Origin, r.Via, r.Destination} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		key := strings.Join(parts, "\x00")
		if !seen[key] {
			seen[key] = true
			journeys = append(journeys, parts)
		}
	}
	if len(journeys) <= 1 {
		return pairs, journeys
	}

	for i := range journeys {
		parts := journeys[i]
		for j := i + 1; j < len(journeys); j++ {
			other := journeys[j]
			if other == nil {
				continue
			}
			if parts[0] == other[len(other)-1] {
				journeys[j] = append(slices.Clone(other), parts[1:]...)
			} else if parts[len(parts)-1] == other[0] {
				journeys[j] = append(slices.Clone(parts), other[1:]...)
			} else {
				continue
			}
			journeys[i] = nil
			break
		}
	}
	journeys = slices.DeleteFunc(journeys, func(j []string) bool { return j == nil })

	if len(journeys) == 2 && len(journeys[0]) == 2 && len(journeys[1]) == 2 {
		a, b := journeys[0], journeys[1]
		switch {
		case a[1] == b[1]:
			journeys = [][]string{{a[0] + " or " + b[0], a[1]}}
		case a[0] == b[0]:
			journeys = [][]string{{a[0], a[1] + " or " + b[1]}}
		}
	}
	return nil, journeys
}
