package gtfsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"timetables.bustimes.org/internal/logging"
)

// ImportFeedWithSource imports feed unless the last import from source had the
// same hash. It reports whether anything was written.
func (c *Client) ImportFeedWithSource(ctx context.Context, feed Feed, source, hash string) (bool, error) {
	previous, err := c.importedHash(ctx, source)
	if err != nil {
		return false, err
	}
	if previous == hash {
		logging.LogOperation(c.logger, "feed_unchanged_skipping_import",
			slog.String("source", source),
			slog.String("hash", hash))
		return false, nil
	}

	if err := c.ImportFeed(ctx, feed); err != nil {
		return false, err
	}

	_, err = c.DB.ExecContext(ctx, `
		INSERT OR REPLACE INTO import_metadata (source, hash, imported_at) VALUES (?, ?, ?)`,
		source, hash, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return true, fmt.Errorf("error recording import: %w", err)
	}
	return true, nil
}

func (c *Client) importedHash(ctx context.Context, source string) (string, error) {
	var hash string
	err := c.DB.QueryRowContext(ctx, `SELECT hash FROM import_metadata WHERE source = ?`, source).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("error reading import metadata: %w", err)
	}
	return hash, nil
}
