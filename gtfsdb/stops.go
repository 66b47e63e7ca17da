package gtfsdb

import (
	"context"
	"fmt"

	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/models"
)

// StopsByCodes resolves stop codes to stop records. Unknown codes are absent
// from the result.
func (c *Client) StopsByCodes(ctx context.Context, codes []string) (map[string]models.Stop, error) {
	stops := make(map[string]models.Stop, len(codes))
	if len(codes) == 0 {
		return stops, nil
	}
	in, args := inClause(codes)
	rows, err := c.DB.QueryContext(ctx, `
		SELECT id, code, name, indicator, locality, suspended
		FROM stops
		WHERE code IN (`+in+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying stops: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, c.logger, "stop_rows")

	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.Indicator, &s.Locality, &s.Suspended); err != nil {
			return nil, fmt.Errorf("error scanning stop: %w", err)
		}
		stops[s.Code] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading stops: %w", err)
	}
	return stops, nil
}

// SetStopSuspended marks a stop as not currently served.
func (c *Client) SetStopSuspended(ctx context.Context, code string, suspended bool) error {
	res, err := c.DB.ExecContext(ctx, `UPDATE stops SET suspended = ? WHERE code = ?`, boolToInt(suspended), code)
	if err != nil {
		return fmt.Errorf("error updating stop %s: %w", code, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: stop %s", ErrNotFound, code)
	}
	return nil
}
