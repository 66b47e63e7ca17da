package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"timetables.bustimes.org/gtfsdb"
	"timetables.bustimes.org/internal/logging"
)

// Manager keeps the timetable store loaded from a GTFS feed and holds the
// latest GTFS-realtime trip updates. It serves as both the static source and
// the live feed of a timetable build.
type Manager struct {
	config      Config
	GtfsDB      *gtfsdb.Client
	logger      *slog.Logger
	staticMutex sync.RWMutex
	lastUpdated time.Time

	realTimeMutex   sync.RWMutex
	realTimeUpdated time.Time
	tripUpdates     gcache.Cache

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	shutdownOnce sync.Once
}

// InitGTFSManager opens the store, imports the static feed and, for remote
// feeds or when realtime is configured, starts the refresh loops.
func InitGTFSManager(ctx context.Context, config Config) (*Manager, error) {
	gtfsDB, err := gtfsdb.NewClient(gtfsdb.NewConfig(config.GTFSDataPath, config.Env, config.Verbose))
	if err != nil {
		return nil, fmt.Errorf("error building GTFS database: %w", err)
	}

	manager := &Manager{
		config:       config,
		GtfsDB:       gtfsDB,
		logger:       logging.FromContext(ctx).With(slog.String("component", "gtfs_manager")),
		tripUpdates:  newTripUpdateCache(config.realTimeTTL()),
		shutdownChan: make(chan struct{}),
	}

	if err := manager.importStatic(ctx); err != nil {
		_ = gtfsDB.Close()
		return nil, err
	}
	if err := gtfsDB.ImportBankHolidays(ctx, config.BankHolidays, config.BankHolidayRules); err != nil {
		_ = gtfsDB.Close()
		return nil, fmt.Errorf("error importing bank holidays: %w", err)
	}

	if !isLocalFile(config.GtfsURL) {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}

	if config.realTimeDataEnabled() {
		rtCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		if err := manager.updateGTFSRealtime(rtCtx); err != nil {
			// the first poll failing is not fatal, the loop retries
			logging.LogError(manager.logger, "Error loading GTFS-RT trip updates data", err,
				slog.String("url", config.TripUpdatesURL))
		}
		cancel()
		manager.wg.Add(1)
		go manager.updateGTFSRealtimePeriodically()
	}

	return manager, nil
}

// Shutdown stops the background loops and closes the store.
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
		if manager.GtfsDB != nil {
			_ = manager.GtfsDB.Close()
		}
	})
}

// LastUpdated is when the static feed was last checked.
func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// Statistics reports row counts in the store.
func (manager *Manager) Statistics(ctx context.Context) (map[string]int, error) {
	return manager.GtfsDB.TableCounts(ctx)
}
