package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	// General
	Env      string
	LogLevel string

	// Algolia search index
	AlgoliaAppID        string
	AlgoliaAPIKey       string
	AlgoliaIndex        string
	AlgoliaHost         string // overrides https://{app}-dsn.algolia.net when set
	SearchTimeout       time.Duration
	HitsPerPage         int
	FetchAllHitsPerPage int
	Debounce            time.Duration

	// Sources: retailer id -> allowed
	SourceAllowed map[string]bool

	// Rate limiting
	RatePerSecond float64
	RateBurst     int
	MaxConcurrent int

	// Auth/commerce backend
	APIBaseURL string
	APITimeout time.Duration

	// Search gate
	GatePolicy        string // "terms", "dwell"
	GateThreshold     int
	GateDwell         time.Duration
	GateCheckInterval time.Duration

	// Client storage
	Storage     string // "file", "redis", "memory"
	StoragePath string
	RedisURL    string
	SessionID   string

	// HTTP server
	HTTPPort    string
	APIKey      string
	CORSOrigins []string // empty: no CORS headers
}

// SourceIDs lists the retailers known to the client, in display order.
var SourceIDs = []string{"robu", "robokit", "sunrom", "zbotic", "evelta", "robocraze", "quartz"}

// DefaultConfig returns configuration with sensible defaults. Every
// retailer starts allowed; RADAR_<ID>_ALLOWED only narrows the set.
func DefaultConfig() *Config {
	allowed := make(map[string]bool, len(SourceIDs))
	for _, id := range SourceIDs {
		allowed[id] = true
	}
	return &Config{
		Env:                 "development",
		LogLevel:            "info",
		AlgoliaIndex:        "Products",
		SearchTimeout:       5 * time.Second,
		HitsPerPage:         10,
		FetchAllHitsPerPage: 1000,
		Debounce:            300 * time.Millisecond,
		SourceAllowed:       allowed,
		RatePerSecond:       5.0,
		RateBurst:           10,
		MaxConcurrent:       4,
		APIBaseURL:          "http://localhost:8000",
		APITimeout:          10 * time.Second,
		GatePolicy:          "terms",
		GateThreshold:       3,
		GateDwell:           3 * time.Minute,
		GateCheckInterval:   10 * time.Second,
		Storage:             "file",
		StoragePath:         defaultStoragePath(),
		RedisURL:            "redis://localhost:6379/0",
		SessionID:           "default",
		HTTPPort:            "8080",
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".radar-session.json"
	}
	return dir + string(os.PathSeparator) + "radar" + string(os.PathSeparator) + "session.json"
}

// LoadFromEnv loads .env file (if present) then overrides config from environment variables.
func (c *Config) LoadFromEnv() {
	// Auto-load .env file; silently ignored if missing
	_ = godotenv.Load()

	setString(&c.Env, "RADAR_ENV")
	setString(&c.LogLevel, "RADAR_LOG_LEVEL")

	setString(&c.AlgoliaAppID, "RADAR_ALGOLIA_APP_ID")
	setString(&c.AlgoliaAPIKey, "RADAR_ALGOLIA_API_KEY")
	setString(&c.AlgoliaIndex, "RADAR_ALGOLIA_INDEX")
	setString(&c.AlgoliaHost, "RADAR_ALGOLIA_HOST")
	setDuration(&c.SearchTimeout, "RADAR_SEARCH_TIMEOUT")
	setInt(&c.HitsPerPage, "RADAR_HITS_PER_PAGE")
	setInt(&c.FetchAllHitsPerPage, "RADAR_FETCH_ALL_HITS_PER_PAGE")
	setDuration(&c.Debounce, "RADAR_DEBOUNCE")

	for _, id := range SourceIDs {
		key := "RADAR_" + strings.ToUpper(id) + "_ALLOWED"
		if v := os.Getenv(key); v != "" {
			c.SourceAllowed[id] = v == "true"
		}
	}

	if v := os.Getenv("RADAR_RATE_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RatePerSecond = f
		} else {
			log.Warn().Str("key", "RADAR_RATE_PER_SECOND").Str("value", v).Msg("invalid float, keeping default")
		}
	}
	setInt(&c.RateBurst, "RADAR_RATE_BURST")
	setInt(&c.MaxConcurrent, "RADAR_MAX_CONCURRENT")

	setString(&c.APIBaseURL, "RADAR_API_BASE_URL")
	setDuration(&c.APITimeout, "RADAR_API_TIMEOUT")

	setString(&c.GatePolicy, "RADAR_GATE_POLICY")
	setInt(&c.GateThreshold, "RADAR_GATE_THRESHOLD")
	setDuration(&c.GateDwell, "RADAR_GATE_DWELL")
	setDuration(&c.GateCheckInterval, "RADAR_GATE_CHECK_INTERVAL")

	setString(&c.Storage, "RADAR_STORAGE")
	setString(&c.StoragePath, "RADAR_STORAGE_PATH")
	setString(&c.RedisURL, "RADAR_REDIS_URL")
	setString(&c.SessionID, "RADAR_SESSION_ID")

	setString(&c.HTTPPort, "PORT")
	setString(&c.APIKey, "RADAR_API_KEY")
	if v := os.Getenv("RADAR_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
}

// ErrMissingAlgolia is returned by Validate when search credentials are absent.
var ErrMissingAlgolia = errors.New("algolia app id and api key are required (RADAR_ALGOLIA_APP_ID, RADAR_ALGOLIA_API_KEY)")

// Validate checks the settings needed to reach the search index.
func (c *Config) Validate() error {
	if c.AlgoliaAppID == "" && c.AlgoliaHost == "" {
		return ErrMissingAlgolia
	}
	if c.AlgoliaAPIKey == "" {
		return ErrMissingAlgolia
	}
	return nil
}

// AllowedSources returns the ids whose allow flag is set, in display order.
func (c *Config) AllowedSources() []string {
	out := make([]string, 0, len(SourceIDs))
	for _, id := range SourceIDs {
		if c.SourceAllowed[id] {
			out = append(out, id)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid integer, keeping default")
		return
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, keeping default")
		return
	}
	*dst = d
}
