package gtfsdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"timetables.bustimes.org/internal/appconf"
	"timetables.bustimes.org/internal/models"
)

//go:embed schema.sql
var ddl string

const dateLayout = "2006-01-02"

var (
	ErrFileDBInTest = errors.New("test database must use in-memory storage")
	ErrNotFound     = errors.New("not found")
)

// createDB opens SQLite and applies the schema.
func createDB(config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("%w: %s", ErrFileDBInTest, config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	configureConnectionPool(db, config.DBPath)

	if err := performDatabaseMigration(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return db, nil
}

// configureConnectionPool sizes the pool. Every connection to ":memory:" is a
// separate database, so in-memory stores get exactly one.
func configureConnectionPool(db *sql.DB, path string) {
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// toNullString converts a string to sql.NullString
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

func toNullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func fromNullDate(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// toNullSeconds stores a time of day as whole seconds after midnight.
func toNullSeconds(d models.NullDuration) sql.NullInt64 {
	if !d.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(d.Duration / time.Second), Valid: true}
}

func fromNullSeconds(n sql.NullInt64) models.NullDuration {
	if !n.Valid {
		return models.NullDuration{}
	}
	return models.NewNullDuration(time.Duration(n.Int64) * time.Second)
}

// inClause returns "?, ?, ?" for n values and the values as query args.
func inClause(values []string) (string, []any) {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", "), args
}
