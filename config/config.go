package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the data directory and the environment variable prefix.
const AppName = "oppscout"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Crawl     CrawlConfig
	Store     StoreConfig
	Webhook   WebhookConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// DiscoverTimeout bounds one synchronous discovery request.
	DiscoverTimeout time.Duration // default: 10m
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting of the API.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the discovery response cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached responses.
	MaxEntries int // default: 100
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// CrawlConfig controls fetching and request pacing during a discovery run.
type CrawlConfig struct {
	// RequestTimeout is the deadline for one endpoint request.
	RequestTimeout time.Duration // default: 15s

	// MaxConns caps in-flight requests across all sources.
	MaxConns int // default: 10

	// MaxConnsPerHost caps connections to a single host.
	MaxConnsPerHost int // default: 2

	// RequestCeiling is the number of requests before a cooldown.
	RequestCeiling int // default: 20

	// Cooldown is the pause once the ceiling is exceeded.
	Cooldown time.Duration // default: 60s

	// JitterMin and JitterMax bound the pause before every other request.
	JitterMin time.Duration // default: 1s
	JitterMax time.Duration // default: 3s

	// UserAgent overrides the browser-like default.
	UserAgent string

	// SourcesFile is an optional YAML registry replacing the built-in one.
	SourcesFile string
}

// StoreConfig controls the SQLite opportunity store.
type StoreConfig struct {
	// Enabled toggles persistence.
	Enabled bool // default: true

	// Path is the database file.
	Path string // default: $XDG_DATA_HOME/oppscout/oppscout.db
}

// WebhookConfig is the default receiver of discovery.completed events.
// Requests may name their own receiver instead.
type WebhookConfig struct {
	URL    string
	Secret string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            envOr("OPPSCOUT_HOST", "0.0.0.0"),
			Port:            envIntOr("OPPSCOUT_PORT", 8080),
			Mode:            envOr("OPPSCOUT_MODE", "release"),
			DiscoverTimeout: envDurationOr("OPPSCOUT_DISCOVER_TIMEOUT", 10*time.Minute),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("OPPSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("OPPSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("OPPSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("OPPSCOUT_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("OPPSCOUT_CACHE_MAX_ENTRIES", 100),
		},
		Log: LogConfig{
			Level:  envOr("OPPSCOUT_LOG_LEVEL", "info"),
			Format: envOr("OPPSCOUT_LOG_FORMAT", "json"),
		},
		Crawl: CrawlConfig{
			RequestTimeout:  envDurationOr("OPPSCOUT_REQUEST_TIMEOUT", 15*time.Second),
			MaxConns:        envIntOr("OPPSCOUT_MAX_CONNS", 10),
			MaxConnsPerHost: envIntOr("OPPSCOUT_MAX_CONNS_PER_HOST", 2),
			RequestCeiling:  envIntOr("OPPSCOUT_REQUEST_CEILING", 20),
			Cooldown:        envDurationOr("OPPSCOUT_COOLDOWN", 60*time.Second),
			JitterMin:       envDurationOr("OPPSCOUT_JITTER_MIN", 1*time.Second),
			JitterMax:       envDurationOr("OPPSCOUT_JITTER_MAX", 3*time.Second),
			UserAgent:       os.Getenv("OPPSCOUT_USER_AGENT"),
			SourcesFile:     os.Getenv("OPPSCOUT_SOURCES_FILE"),
		},
		Store: StoreConfig{
			Enabled: envBoolOr("OPPSCOUT_STORE_ENABLED", true),
			Path:    envOr("OPPSCOUT_DB_PATH", DefaultStorePath()),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("OPPSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("OPPSCOUT_WEBHOOK_SECRET"),
		},
	}
}

// DataDir returns the XDG data directory for oppscout,
// e.g. ~/.local/share/oppscout on Linux.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultStorePath is the database file inside DataDir.
func DefaultStorePath() string {
	return filepath.Join(DataDir(), AppName+".db")
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
