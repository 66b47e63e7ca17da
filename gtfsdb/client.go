package gtfsdb

import (
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Client stores an imported timetable feed and answers the bulk queries a
// timetable build makes.
type Client struct {
	config        Config
	DB            *sql.DB
	logger        *slog.Logger
	importRuntime time.Duration
}

// NewClient opens the database and creates the schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}

	client := &Client{
		config: config,
		DB:     db,
		logger: slog.Default().With(slog.String("component", "gtfsdb")),
	}
	if config.verbose {
		client.logger.Info("created tables", slog.String("db_path", config.DBPath))
	}
	return client, nil
}

// WithLogger replaces the client's logger.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger.With(slog.String("component", "gtfsdb"))
	return c
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// ImportRuntime is how long the last import took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}
