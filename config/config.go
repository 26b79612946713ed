package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"ikonwatch/helpers"
)

// State store backends
const (
	StateBackendMemory   = "memory"
	StateBackendRedis    = "redis"
	StateBackendMemcache = "memcache"
)

// Config represents the application configuration
type Config struct {
	// Ikon account and endpoints
	LoginEmail    string
	LoginPassword string
	LoginURL      string
	FetchURL      string
	DesiredDates  []string

	// Poll cadence
	PollInterval time.Duration

	// Session policy
	SessionMaxAge    time.Duration
	LoginMaxAttempts int
	LoginBackoffBase time.Duration
	LoginBackoffMax  time.Duration

	// In-cycle fetch retries
	FetchMaxRetries  int
	FetchBackoffBase time.Duration

	// Notification dispatch retries
	NotifyMaxRetries  int
	NotifyBackoffBase time.Duration

	// Sinch SMS provider
	SinchKeyID      string
	SinchKeySecret  string
	SinchProjectID  string
	SinchFromNumber string
	SinchToNumbers  []string
	SinchRegion     string

	// Optional SMTP channel; enabled when SMTPAddr is set
	SMTPAddr     string
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	SMTPTo       []string

	// Notified-state store
	StateBackend string
	StateKey     string
	RedisAddr    string
	RedisDB      int
	MemcacheAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	pollInterval, _ := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "300"))
	sessionMaxAge, _ := strconv.Atoi(getEnv("SESSION_MAX_AGE_MINUTES", "45"))
	loginMaxAttempts, _ := strconv.Atoi(getEnv("LOGIN_MAX_ATTEMPTS", "5"))
	loginBackoffBase, _ := strconv.Atoi(getEnv("LOGIN_BACKOFF_BASE_SECONDS", "5"))
	loginBackoffMax, _ := strconv.Atoi(getEnv("LOGIN_BACKOFF_MAX_SECONDS", "180"))
	fetchMaxRetries, _ := strconv.Atoi(getEnv("FETCH_MAX_RETRIES", "2"))
	fetchBackoffBase, _ := strconv.Atoi(getEnv("FETCH_BACKOFF_BASE_SECONDS", "2"))
	notifyMaxRetries, _ := strconv.Atoi(getEnv("NOTIFY_MAX_RETRIES", "3"))
	notifyBackoffBase, _ := strconv.Atoi(getEnv("NOTIFY_BACKOFF_BASE_SECONDS", "3"))

	return &Config{
		LoginEmail:    os.Getenv("LOGIN_EMAIL"),
		LoginPassword: os.Getenv("LOGIN_PASSWORD"),
		LoginURL:      os.Getenv("LOGIN_URL"),
		FetchURL:      os.Getenv("FETCH_URL"),
		DesiredDates:  helpers.SplitCSV(os.Getenv("DESIRED_DATES")),

		PollInterval: time.Duration(pollInterval) * time.Second,

		SessionMaxAge:    time.Duration(sessionMaxAge) * time.Minute,
		LoginMaxAttempts: loginMaxAttempts,
		LoginBackoffBase: time.Duration(loginBackoffBase) * time.Second,
		LoginBackoffMax:  time.Duration(loginBackoffMax) * time.Second,

		FetchMaxRetries:  fetchMaxRetries,
		FetchBackoffBase: time.Duration(fetchBackoffBase) * time.Second,

		NotifyMaxRetries:  notifyMaxRetries,
		NotifyBackoffBase: time.Duration(notifyBackoffBase) * time.Second,

		SinchKeyID:      os.Getenv("SINCH_KEY_ID"),
		SinchKeySecret:  os.Getenv("SINCH_KEY_SECRET"),
		SinchProjectID:  os.Getenv("SINCH_PROJECT_ID"),
		SinchFromNumber: os.Getenv("SINCH_FROM_NUMBER"),
		SinchToNumbers:  helpers.SplitCSV(os.Getenv("SINCH_TO_NUMBERS")),
		SinchRegion:     getEnv("SINCH_REGION", "us"),

		SMTPAddr:     os.Getenv("SMTP_ADDR"),
		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPTo:       helpers.SplitCSV(os.Getenv("SMTP_TO")),

		StateBackend: getEnv("STATE_BACKEND", StateBackendMemory),
		StateKey:     getEnv("STATE_KEY", "ikonwatch:notified"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      redisDB,
		MemcacheAddr: getEnv("MEMCACHE_ADDR", "localhost:11211"),

		Environment: getEnv("IKONWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks required settings and normalizes the desired-date list.
// It reports every missing variable at once so a broken deployment is fixed
// in one pass instead of one variable per restart.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		empty bool
	}{
		{"LOGIN_EMAIL", c.LoginEmail == ""},
		{"LOGIN_PASSWORD", c.LoginPassword == ""},
		{"LOGIN_URL", c.LoginURL == ""},
		{"FETCH_URL", c.FetchURL == ""},
		{"DESIRED_DATES", len(c.DesiredDates) == 0},
		{"SINCH_KEY_ID", c.SinchKeyID == ""},
		{"SINCH_KEY_SECRET", c.SinchKeySecret == ""},
		{"SINCH_PROJECT_ID", c.SinchProjectID == ""},
		{"SINCH_FROM_NUMBER", c.SinchFromNumber == ""},
		{"SINCH_TO_NUMBERS", len(c.SinchToNumbers) == 0},
	}
	var missing []string
	for _, r := range required {
		if r.empty {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing or empty environment variables: %s", strings.Join(missing, ", "))
	}

	for _, name := range []string{"LOGIN_URL", "FETCH_URL"} {
		raw := c.LoginURL
		if name == "FETCH_URL" {
			raw = c.FetchURL
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("%s is not a valid http(s) URL: %q", name, raw)
		}
	}

	dates, err := helpers.ParseDateList(strings.Join(c.DesiredDates, ","))
	if err != nil {
		return fmt.Errorf("DESIRED_DATES: %w", err)
	}
	c.DesiredDates = dates

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.LoginMaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1")
	}
	if c.FetchMaxRetries < 0 {
		return fmt.Errorf("FETCH_MAX_RETRIES must not be negative")
	}
	if c.NotifyMaxRetries < 0 {
		return fmt.Errorf("NOTIFY_MAX_RETRIES must not be negative")
	}
	for name, d := range map[string]time.Duration{
		"LOGIN_BACKOFF_BASE_SECONDS":  c.LoginBackoffBase,
		"LOGIN_BACKOFF_MAX_SECONDS":   c.LoginBackoffMax,
		"FETCH_BACKOFF_BASE_SECONDS":  c.FetchBackoffBase,
		"NOTIFY_BACKOFF_BASE_SECONDS": c.NotifyBackoffBase,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	switch c.StateBackend {
	case StateBackendMemory, StateBackendRedis, StateBackendMemcache:
	default:
		return fmt.Errorf("STATE_BACKEND must be one of memory, redis, memcache (got %q)", c.StateBackend)
	}

	if c.SMTPAddr != "" {
		if c.SMTPFrom == "" || len(c.SMTPTo) == 0 {
			return fmt.Errorf("SMTP_FROM and SMTP_TO are required when SMTP_ADDR is set")
		}
	}

	return nil
}

// EmailEnabled reports whether the optional SMTP channel is configured
func (c *Config) EmailEnabled() bool {
	return c.SMTPAddr != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
