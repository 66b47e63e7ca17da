package gtfs

import (
	"time"

	"timetables.bustimes.org/gtfsdb"
	"timetables.bustimes.org/internal/appconf"
)

type Config struct {
	// GtfsURL is a GTFS zip, either a local path or an http(s) URL.
	GtfsURL string
	// TripUpdatesURL is a GTFS-realtime trip updates feed, a local path or a URL.
	TripUpdatesURL          string
	RealTimeAuthHeaderKey   string
	RealTimeAuthHeaderValue string
	RealTimeRefresh         time.Duration
	RealTimeTTL             time.Duration
	StaticRefresh           time.Duration

	GTFSDataPath string
	Env          appconf.Environment
	Verbose      bool

	BankHolidays     map[string][]time.Time
	BankHolidayRules []gtfsdb.BankHolidayRule
	SuspendedStops   []string
}

func (config Config) realTimeDataEnabled() bool {
	return config.TripUpdatesURL != ""
}

func (config Config) realTimeRefresh() time.Duration {
	if config.RealTimeRefresh > 0 {
		return config.RealTimeRefresh
	}
	return 30 * time.Second
}

func (config Config) realTimeTTL() time.Duration {
	if config.RealTimeTTL > 0 {
		return config.RealTimeTTL
	}
	return 5 * time.Minute
}

func (config Config) staticRefresh() time.Duration {
	if config.StaticRefresh > 0 {
		return config.StaticRefresh
	}
	return 24 * time.Hour
}

// NewConfig maps the application configuration onto the manager's.
func NewConfig(cfg appconf.Config) (Config, error) {
	holidays := make(map[string][]time.Time, len(cfg.BankHolidays))
	for _, bh := range cfg.BankHolidays {
		for _, d := range bh.Dates {
			date, err := time.Parse("2006-01-02", d)
			if err != nil {
				return Config{}, err
			}
			holidays[bh.Name] = append(holidays[bh.Name], date)
		}
	}

	rules := make([]gtfsdb.BankHolidayRule, len(cfg.CalendarBankHolidays))
	for i, r := range cfg.CalendarBankHolidays {
		rules[i] = gtfsdb.BankHolidayRule{CalendarID: r.Calendar, BankHoliday: r.BankHoliday, Operation: r.Operation}
	}

	return Config{
		GtfsURL:                 cfg.GTFS.StaticPath,
		TripUpdatesURL:          cfg.GTFS.RealtimePath,
		RealTimeAuthHeaderKey:   cfg.GTFS.RealtimeAuthHeaderKey,
		RealTimeAuthHeaderValue: cfg.GTFS.RealtimeAuthHeaderValue,
		RealTimeRefresh:         cfg.GTFS.RealtimeRefresh,
		RealTimeTTL:             cfg.GTFS.RealtimeTTL,
		StaticRefresh:           cfg.GTFS.StaticRefresh,
		GTFSDataPath:            cfg.GTFS.DBPath,
		Env:                     cfg.Env,
		Verbose:                 cfg.Verbose,
		BankHolidays:            holidays,
		BankHolidayRules:        rules,
		SuspendedStops:          cfg.SuspendedStops,
	}, nil
}
