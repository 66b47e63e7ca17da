package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

const routeColumns = `id, service_id, line_name, code, revision_number, start_date, end_date,
	origin, destination, via, inbound_description, outbound_description`

// RoutesByIDs returns the routes that exist, in the order of ids.
func (c *Client) RoutesByIDs(ctx context.Context, ids []string) ([]models.Route, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	found, err := c.queryRoutes(ctx, `SELECT `+routeColumns+` FROM routes WHERE id IN (`+in+`)`, args...)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Route, len(found))
	for _, r := range found {
		byID[r.ID] = r
	}
	routes := make([]models.Route, 0, len(found))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			routes = append(routes, r)
			delete(byID, id)
		}
	}
	return routes, nil
}

// ServiceRoutes returns every revision of a service.
func (c *Client) ServiceRoutes(ctx context.Context, serviceID string) ([]models.Route, error) {
	return c.queryRoutes(ctx, `SELECT `+routeColumns+` FROM routes
		WHERE service_id = ? ORDER BY revision_number, id`, serviceID)
}

func (c *Client) queryRoutes(ctx context.Context, query string, args ...any) ([]models.Route, error) {
	rows, err := c.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying routes: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "route_rows")

	var routes []models.Route
	for rows.Next() {
		var r models.Route
		var startDate, endDate sql.NullString
		err := rows.Scan(&r.ID, &r.ServiceID, &r.LineName, &r.Code, &r.RevisionNumber,
			&startDate, &endDate,
			&r.Origin, &r.Destination, &r.Via, &r.InboundDescription, &r.OutboundDescription)
		if err != nil {
			return nil, fmt.Errorf("error scanning route: %w", err)
		}
		if r.StartDate, err = fromNullDate(startDate); err != nil {
			return nil, err
		}
		if r.EndDate, err = fromNullDate(endDate); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading routes: %w", err)
	}
	return routes, nil
}
