// Package appconf loads the server configuration from YAML and validates it.
package appconf

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // timezone validation without system zoneinfo

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all the configuration settings for the application. Values
// from the YAML file can be overridden by command-line flags in cmd/api.
type Config struct {
	Port      int         `yaml:"port" validate:"gte=0,lte=65535"`
	Env       Environment `yaml:"env"`
	ApiKeys   []string    `yaml:"apiKeys" validate:"dive,required"`
	RateLimit int         `yaml:"rateLimit" validate:"gte=0"`
	Verbose   bool        `yaml:"verbose"`

	GTFS      GTFSConfig      `yaml:"gtfs"`
	Timetable TimetableConfig `yaml:"timetable"`

	BankHolidays         []BankHoliday         `yaml:"bankHolidays" validate:"dive"`
	CalendarBankHolidays []CalendarBankHoliday `yaml:"calendarBankHolidays" validate:"dive"`
	// SuspendedStops are stop codes dropped from every timetable.
	SuspendedStops []string `yaml:"suspendedStops" validate:"dive,required"`
}

type GTFSConfig struct {
	// StaticPath is a GTFS zip, a local path or an http(s) URL.
	StaticPath string `yaml:"static" validate:"required"`
	// StaticRefresh is how often a remote StaticPath is fetched again.
	StaticRefresh time.Duration `yaml:"staticRefresh" validate:"gte=0"`

	// RealtimePath is a GTFS-realtime trip updates feed, re-read every RealtimeRefresh.
	RealtimePath    string        `yaml:"realtime"`
	RealtimeRefresh time.Duration `yaml:"realtimeRefresh" validate:"gte=0"`
	RealtimeTTL     time.Duration `yaml:"realtimeTTL" validate:"gte=0"`
	// RealtimeAuthHeaderKey and Value are sent with realtime requests, as in "x-api-key: secret".
	RealtimeAuthHeaderKey   string `yaml:"realtimeAuthHeaderKey" validate:"required_with=RealtimeAuthHeaderValue"`
	RealtimeAuthHeaderValue string `yaml:"realtimeAuthHeaderValue"`

	DBPath string `yaml:"db"`
}

type TimetableConfig struct {
	WindowDays int    `yaml:"windowDays" validate:"gte=0,lte=366"`
	Timezone   string `yaml:"timezone" validate:"omitempty,timezone"`
}

// BankHoliday names a holiday and the dates it falls on (YYYY-MM-DD).
type BankHoliday struct {
	Name  string   `yaml:"name" validate:"required"`
	Dates []string `yaml:"dates" validate:"required,dive,datetime=2006-01-02"`
}

// CalendarBankHoliday says whether a GTFS service runs on a bank holiday.
type CalendarBankHoliday struct {
	Calendar    string `yaml:"calendar" validate:"required"`
	BankHoliday string `yaml:"bankHoliday" validate:"required"`
	Operation   bool   `yaml:"operation"`
}

func Default() Config {
	return Config{
		Port:      4000,
		Env:       Development,
		RateLimit: 100,
		GTFS: GTFSConfig{
			RealtimeRefresh: 30 * time.Second,
			RealtimeTTL:     5 * time.Minute,
			DBPath:          ":memory:",
		},
		Timetable: TimetableConfig{
			WindowDays: 21,
			Timezone:   "Europe/London",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location is the timetable timezone, UTC when unset.
func (c Config) Location() (*time.Location, error) {
	if c.Timetable.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timetable.Timezone)
}
