package infra

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	DBMaxConns        int
	GenerationBaseURL string
	GenerationAPIKey  string
	GenerationTimeout time.Duration
	PollInterval      time.Duration
	PollMaxRetries    int
	PollMaxBackoff    time.Duration
	JobRetention      time.Duration
	ToastDuration     time.Duration
	DefaultLocale     string
	GeoIPDBPath       string
	CORSOrigins       []string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", "")),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		GenerationBaseURL: strings.TrimRight(os.Getenv("GENERATION_BASE_URL"), "/"),
		GenerationAPIKey:  strings.TrimSpace(os.Getenv("GENERATION_API_KEY")),
		GenerationTimeout: time.Second * time.Duration(getEnvInt("GENERATION_TIMEOUT_SECONDS", 20)),
		PollInterval:      time.Millisecond * time.Duration(getEnvInt("POLL_INTERVAL_MS", 2000)),
		PollMaxRetries:    getEnvInt("POLL_MAX_RETRIES", 5),
		PollMaxBackoff:    time.Millisecond * time.Duration(getEnvInt("POLL_MAX_BACKOFF_MS", 30000)),
		JobRetention:      time.Second * time.Duration(getEnvInt("JOB_RETENTION_SECONDS", 900)),
		ToastDuration:     time.Millisecond * time.Duration(getEnvInt("TOAST_DURATION_MS", 8000)),
		DefaultLocale:     strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:       splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if cfg.GenerationBaseURL == "" {
		return nil, fmt.Errorf("GENERATION_BASE_URL is required")
	}
	if u, err := url.Parse(cfg.GenerationBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("GENERATION_BASE_URL must be an absolute url: %q", cfg.GenerationBaseURL)
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL_MS must be positive")
	}
	if cfg.PollMaxRetries < 0 {
		return nil, fmt.Errorf("POLL_MAX_RETRIES must not be negative")
	}
	if cfg.PollMaxBackoff < cfg.PollInterval {
		cfg.PollMaxBackoff = cfg.PollInterval
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 4
	}
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = 8 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
