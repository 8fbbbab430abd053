package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"

	"github.com/radioacc/marta-sign/internal/schedule"
)

// apiKeyPlaceholder in a feed URL is replaced with MARTA_API_KEY
const apiKeyPlaceholder = "{API_KEY}"

// DefaultFeedURLs are MARTA's primary and legacy realtime rail endpoints
var DefaultFeedURLs = []string{
	"https://developerservices.itsmarta.com:18096/itsmarta/railrealtimearrivals/developerservices/traindata?apiKey=" + apiKeyPlaceholder,
	"http://developer.itsmarta.com/RealtimeTrain/RestServiceNextTrain/GetRealtimeArrivals?apikey=" + apiKeyPlaceholder,
}

// Config holds all configuration for the arrivals service
type Config struct {
	// HTTP
	Port               int      `validate:"min=1,max=65535"`
	CORSAllowedOrigins []string `validate:"min=1,dive,required"`

	// Board
	DefaultStation string `validate:"required"`
	TargetCount    int    `validate:"min=1,max=50"`

	// Realtime feed
	APIKey      string
	// UserAgent overrides the browser User-Agent when set
	UserAgent   string
	FeedURLs    []string      `validate:"min=1,dive,url"`
	FeedTimeout time.Duration `validate:"gt=0"`
	CacheTTL    time.Duration `validate:"gt=0"`

	// Timetable
	DatabasePath           string        `validate:"required"`
	QueryTimeout           time.Duration `validate:"gt=0"`
	Timezone               string        `validate:"required"`
	CalendarExceptionsFile string

	// Static timetable refresh
	GTFSURL           string `validate:"url"`
	StaticRefreshDays int    `validate:"min=1"`
	CacheDir          string `validate:"required"`

	LogLevel string `validate:"oneof=trace debug info warn error"`
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	cfg := &Config{
		// HTTP
		Port:               getEnvInt("PORT", 10000),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		// Board
		DefaultStation: getEnv("DEFAULT_STATION", "MIDTOWN"),
		TargetCount:    getEnvInt("ARRIVALS_TARGET_COUNT", 6),

		// Realtime feed
		APIKey:      getEnv("MARTA_API_KEY", ""),
		UserAgent:   getEnv("MARTA_USER_AGENT", ""),
		FeedURLs:    getEnvList("MARTA_FEED_URLS", DefaultFeedURLs),
		FeedTimeout: time.Duration(getEnvInt("FEED_TIMEOUT_SECONDS", 5)) * time.Second,
		CacheTTL:    time.Duration(getEnvInt("CACHE_TTL_SECONDS", 15)) * time.Second,

		// Timetable
		DatabasePath:           getEnv("SQLITE_DATABASE", "data/marta_gtfs.db"),
		QueryTimeout:           time.Duration(getEnvInt("SCHEDULE_QUERY_TIMEOUT_SECONDS", 5)) * time.Second,
		Timezone:               getEnv("TIMEZONE", schedule.DefaultTimezone),
		CalendarExceptionsFile: getEnv("CALENDAR_EXCEPTIONS_FILE", ""),

		// Static timetable refresh
		GTFSURL:           getEnv("GTFS_URL", "https://www.itsmarta.com/google_transit_feed/google_transit.zip"),
		StaticRefreshDays: getEnvInt("STATIC_REFRESH_DAYS", 7),
		CacheDir:          getEnv("CACHE_DIR", "data/cache"),

		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	return cfg
}

// Validate checks field constraints and that the timezone exists
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Endpoints returns the feed URLs with the API key filled in
func (c *Config) Endpoints() []string {
	endpoints := make([]string, len(c.FeedURLs))
	for i, u := range c.FeedURLs {
		endpoints[i] = strings.ReplaceAll(u, apiKeyPlaceholder, c.APIKey)
	}
	return endpoints
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return items
}
