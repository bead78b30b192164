package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	devSecret = "dev_secret"
)

// Config is the resolved process configuration.
type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Search        SearchConfig
	Booking       BookingConfig
	Notifications NotificationConfig
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnectAttempts uint
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SearchConfig tunes the availability search cache.
type SearchConfig struct {
	CacheTTL       time.Duration
	LocalCacheSize int
}

// BookingConfig carries the reservation business rules.
type BookingConfig struct {
	OperationsTimezone string
	LockSameDay        bool
	RatePerMinute      int
}

// NotificationConfig sizes the booking notification worker pool.
type NotificationConfig struct {
	Workers      int
	Retries      int
	BufferSize   int
	DrainTimeout time.Duration
}

// Load reads .env (when present) and the process environment. Environment
// variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Env:           strings.ToLower(v.GetString("ENV")),
		Port:          v.GetInt("PORT"),
		APIPrefix:     v.GetString("API_PREFIX"),
		Database:      loadDatabase(v),
		Redis:         loadRedis(v),
		JWT:           JWTConfig{Secret: v.GetString("JWT_SECRET"), Issuer: v.GetString("JWT_ISSUER")},
		CORS:          CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))},
		Log:           LogConfig{Level: v.GetString("LOG_LEVEL"), Format: v.GetString("LOG_FORMAT")},
		Search:        loadSearch(v),
		Booking:       loadBooking(v),
		Notifications: loadNotifications(v),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var problems []string
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.APIPrefix, "/") {
		problems = append(problems, "API_PREFIX must start with /")
	}
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == devSecret) {
		problems = append(problems, "JWT_SECRET must be set in production")
	}
	if c.Booking.OperationsTimezone == "" {
		problems = append(problems, "OPERATIONS_TIMEZONE is required")
	}
	if c.Booking.RatePerMinute <= 0 {
		problems = append(problems, "BOOKING_RATE_PER_MINUTE must be positive")
	}
	if c.Search.CacheTTL <= 0 {
		problems = append(problems, "SEARCH_CACHE_TTL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func loadDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnectAttempts: v.GetUint("DB_CONNECT_ATTEMPTS"),
	}
}

func loadRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS_CACHE"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func loadSearch(v *viper.Viper) SearchConfig {
	return SearchConfig{
		CacheTTL:       parseDuration(v.GetString("SEARCH_CACHE_TTL"), 30*time.Second),
		LocalCacheSize: v.GetInt("LOCAL_CACHE_SIZE"),
	}
}

func loadBooking(v *viper.Viper) BookingConfig {
	return BookingConfig{
		OperationsTimezone: strings.ToLower(strings.TrimSpace(v.GetString("OPERATIONS_TIMEZONE"))),
		LockSameDay:        v.GetBool("BOOKING_LOCK_SAME_DAY"),
		RatePerMinute:      v.GetInt("BOOKING_RATE_PER_MINUTE"),
	}
}

func loadNotifications(v *viper.Viper) NotificationConfig {
	return NotificationConfig{
		Workers:      v.GetInt("NOTIFY_WORKERS"),
		Retries:      v.GetInt("NOTIFY_RETRIES"),
		BufferSize:   v.GetInt("NOTIFY_BUFFER"),
		DrainTimeout: parseDuration(v.GetString("NOTIFY_DRAIN_TIMEOUT"), 5*time.Second),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutor_booking")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONNECT_ATTEMPTS", 5)

	v.SetDefault("ENABLE_REDIS_CACHE", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", devSecret)
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SEARCH_CACHE_TTL", "30s")
	v.SetDefault("LOCAL_CACHE_SIZE", 2048)

	v.SetDefault("OPERATIONS_TIMEZONE", "egypt")
	v.SetDefault("BOOKING_LOCK_SAME_DAY", false)
	v.SetDefault("BOOKING_RATE_PER_MINUTE", 30)

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_BUFFER", 64)
	v.SetDefault("NOTIFY_DRAIN_TIMEOUT", "5s")
}

// viper reports a missing explicit config file as a *fs.PathError rather than
// ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
