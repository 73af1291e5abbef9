package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds environment-based settings
type Config struct {
	Environment    string
	LogLevel       string
	ServerAddress  string
	DatabaseURL    string // empty disables episode history
	MigrationsPath string

	JWTSecret         string
	AdminPasswordHash string // bcrypt; auth is on only when both are set

	PrefsBackend  string
	RedisAddress  string
	RedisUsername string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	MQTTBrokerURL string
	DeviceID      string
	DeviceTimeout time.Duration

	PollInterval  time.Duration
	GuardInterval time.Duration
	PromptTimeout time.Duration

	AladhanURL      string
	IPLocationURL   string
	LookupsPerMin   int
	DefaultLocation *Location // set when DEFAULT_LATITUDE and DEFAULT_LONGITUDE are
	AudioDir        string
	TemplatesGlob   string
}

type Location struct {
	Latitude  float64
	Longitude float64
	Timezone  string
}

func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != "" && c.AdminPasswordHash != ""
}

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads .env files (missing ones are ignored) and then environment variables.
// Variables already set in the environment win over .env values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var errs []error
	cfg := &Config{
		Environment:       getenv("APP_ENV", "production"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		ServerAddress:     getenv("SERVER_ADDRESS", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationsPath:    getenv("MIGRATIONS_PATH", "./migrations"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		PrefsBackend:      strings.ToLower(getenv("PREFS_BACKEND", BackendRedis)),
		RedisAddress:      getenv("REDIS_ADDRESS", "localhost:6379"),
		RedisUsername:     os.Getenv("REDIS_USERNAME"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisPrefix:       getenv("REDIS_PREFIX", "athan:"),
		MQTTBrokerURL:     getenv("MQTT_BROKER_URL", "tcp://0.0.0.0:1883"),
		DeviceID:          getenv("DEVICE_ID", "default"),
		AladhanURL:        os.Getenv("ALADHAN_URL"),
		IPLocationURL:     os.Getenv("IP_LOCATION_URL"),
		AudioDir:          getenv("AUDIO_DIR", "./mp3"),
		TemplatesGlob:     getenv("TEMPLATES_GLOB", "templates/*.html"),
	}

	cfg.RedisDB = getInt("REDIS_DB", 0, &errs)
	cfg.LookupsPerMin = getInt("IP_LOOKUPS_PER_MINUTE", 45, &errs)
	cfg.DeviceTimeout = getDuration("DEVICE_TIMEOUT", 10*time.Second, &errs)
	cfg.PollInterval = getDuration("POLL_INTERVAL", 5*time.Second, &errs)
	cfg.GuardInterval = getDuration("GUARD_INTERVAL", 60*time.Second, &errs)
	cfg.PromptTimeout = getDuration("PROMPT_TIMEOUT", 5*time.Minute, &errs)

	if lat, lon := os.Getenv("DEFAULT_LATITUDE"), os.Getenv("DEFAULT_LONGITUDE"); lat != "" && lon != "" {
		latF, latErr := strconv.ParseFloat(lat, 64)
		lonF, lonErr := strconv.ParseFloat(lon, 64)
		if latErr != nil || lonErr != nil {
			errs = append(errs, fmt.Errorf("DEFAULT_LATITUDE/DEFAULT_LONGITUDE must be numbers"))
		} else {
			cfg.DefaultLocation = &Location{Latitude: latF, Longitude: lonF, Timezone: os.Getenv("DEFAULT_TIMEZONE")}
		}
	}

	if cfg.PrefsBackend != BackendRedis && cfg.PrefsBackend != BackendMemory {
		errs = append(errs, fmt.Errorf("PREFS_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, cfg.PrefsBackend))
	}
	if cfg.PollInterval <= 0 || cfg.GuardInterval <= 0 {
		errs = append(errs, fmt.Errorf("POLL_INTERVAL and GUARD_INTERVAL must be positive"))
	}
	if cfg.DeviceTimeout <= 0 || cfg.PromptTimeout <= 0 {
		errs = append(errs, fmt.Errorf("DEVICE_TIMEOUT and PROMPT_TIMEOUT must be positive"))
	}
	if (cfg.JWTSecret == "") != (cfg.AdminPasswordHash == "") {
		errs = append(errs, fmt.Errorf("JWT_SECRET and ADMIN_PASSWORD_HASH must be set together"))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
