package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"timetables.bustimes.org/internal/app"
	"timetables.bustimes.org/internal/appconf"
	"timetables.bustimes.org/internal/gtfs"
	"timetables.bustimes.org/internal/logging"
	"timetables.bustimes.org/internal/restapi"
)

func main() {
	cfg, err := loadConfig(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.NewStructuredLogger(os.Stdout, logging.Level(cfg.Verbose))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logging.LogError(logger, "server stopped", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional -config file and applies flags over it.
// Flags that are not given leave the file's values alone.
func loadConfig(args []string, output io.Writer) (appconf.Config, error) {
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(output)

	configPath := fs.String("config", "", "YAML config file")
	port := fs.Int("port", 0, "API server port")
	env := fs.String("env", "", "Environment (development|test|production)")
	apiKeys := fs.String("api-keys", "", "Comma separated API keys")
	gtfsURL := fs.String("gtfs-url", "", "GTFS zip, a local path or an http(s) URL")
	tripUpdatesURL := fs.String("trip-updates-url", "", "GTFS-realtime trip updates feed")
	dbPath := fs.String("db", "", "SQLite database path, or :memory:")
	verbose := fs.Bool("verbose", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return appconf.Config{}, err
	}

	cfg := appconf.Default()
	if *configPath != "" {
		var err error
		if cfg, err = appconf.Load(*configPath); err != nil {
			return appconf.Config{}, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "env":
			cfg.Env = appconf.EnvFlagToEnvironment(*env)
		case "api-keys":
			cfg.ApiKeys = splitKeys(*apiKeys)
		case "gtfs-url":
			cfg.GTFS.StaticPath = *gtfsURL
		case "trip-updates-url":
			cfg.GTFS.RealtimePath = *tripUpdatesURL
		case "db":
			cfg.GTFS.DBPath = *dbPath
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	if err := cfg.Validate(); err != nil {
		return appconf.Config{}, err
	}
	return cfg, nil
}

func splitKeys(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// run loads the feed and serves until ctx is cancelled.
func run(ctx context.Context, cfg appconf.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("error loading timezone: %w", err)
	}
	gtfsConfig, err := gtfs.NewConfig(cfg)
	if err != nil {
		return fmt.Errorf("error building GTFS config: %w", err)
	}

	manager, err := gtfs.InitGTFSManager(logging.WithLogger(ctx, logger), gtfsConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}
	defer manager.Shutdown()

	if counts, err := manager.Statistics(ctx); err == nil {
		logger.Info("gtfs loaded",
			slog.Int("routes", counts["routes"]),
			slog.Int("trips", counts["trips"]),
			slog.Int("stops", counts["stops"]))
	}

	api := restapi.NewRestAPI(&app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsConfig,
		Logger:      logger,
		GtfsManager: manager,
		Builder:     app.NewBuilder(cfg, loc, manager, logger),
	})
	defer api.Shutdown()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env.String())
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
