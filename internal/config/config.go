package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"intranet-backend/internal/domains/taxonomy/model"
	"intranet-backend/internal/infrastructure/strapi"
	"intranet-backend/internal/infrastructure/woocommerce"
)

// Config holds the whole application configuration, read from environment variables
type Config struct {
	App         AppConfig
	Strapi      strapi.Config
	WooCommerce WooCommerceConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Job         JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

// WooCommerceConfig lists the stores keyed by origin platform.
// Attribute terms are written to DefaultPlatform.
type WooCommerceConfig struct {
	DefaultPlatform string
	Stores          []woocommerce.StoreConfig
}

type DatabaseConfig struct {
	Enabled     bool
	AutoMigrate bool
	Host        string
	Port        int
	User        string
	Password    string
	Database    string
	SSLMode     string
	MaxConns    int
	MinConns    int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// JobConfig drives the worker: compensation retries and the stale-run sweep
type JobConfig struct {
	CompensationMaxRetry int
	SweepCron            string
	StaleAfter           time.Duration
	SweepBatch           int
	Concurrency          int
	IdempotencyTTL       time.Duration
}

// Load reads config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Intranet API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Strapi: strapi.Config{
			BaseURL:      getEnv("STRAPI_URL", "http://localhost:1337"),
			Token:        getEnv("STRAPI_API_TOKEN", ""),
			ReadTimeout:  getEnvDuration("STRAPI_READ_TIMEOUT", 20*time.Second),
			WriteTimeout: getEnvDuration("STRAPI_WRITE_TIMEOUT", 60*time.Second),
			PageSize:     getEnvInt("STRAPI_PAGE_SIZE", 1000),
		},
		WooCommerce: loadWooCommerce(),
		Database: DatabaseConfig{
			Enabled:     getEnvBool("DB_ENABLED", true),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", false),
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", ""),
			Database:    getEnv("DB_NAME", "intranet"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    getEnvInt("DB_MAX_CONNS", 10),
			MinConns:    getEnvInt("DB_MIN_CONNS", 2),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Issuer: getEnv("JWT_ISSUER", "intranet"),
		},
		Job: JobConfig{
			CompensationMaxRetry: getEnvInt("JOB_COMPENSATION_MAX_RETRY", 8),
			SweepCron:            getEnv("JOB_SWEEP_CRON", "*/10 * * * *"),
			StaleAfter:           getEnvDuration("JOB_STALE_AFTER", 15*time.Minute),
			SweepBatch:           getEnvInt("JOB_SWEEP_BATCH", 100),
			Concurrency:          getEnvInt("JOB_CONCURRENCY", 5),
			IdempotencyTTL:       getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// storeEnv maps an origin platform to its env var prefix
var storeEnv = map[string]string{
	model.PlatformMoraleja: "WOO_MORALEJA",
	model.PlatformEscolar:  "WOO_ESCOLAR",
}

func loadWooCommerce() WooCommerceConfig {
	wc := WooCommerceConfig{
		DefaultPlatform: getEnv("WOO_DEFAULT_PLATFORM", model.PlatformMoraleja),
	}
	for _, platform := range []string{model.PlatformMoraleja, model.PlatformEscolar} {
		prefix := storeEnv[platform]
		baseURL := getEnv(prefix+"_URL", "")
		if baseURL == "" {
			continue
		}
		wc.Stores = append(wc.Stores, woocommerce.StoreConfig{
			Platform:       platform,
			BaseURL:        baseURL,
			ConsumerKey:    getEnv(prefix+"_CONSUMER_KEY", ""),
			ConsumerSecret: getEnv(prefix+"_CONSUMER_SECRET", ""),
			ReadTimeout:    getEnvDuration("WOO_READ_TIMEOUT", 20*time.Second),
			WriteTimeout:   getEnvDuration("WOO_WRITE_TIMEOUT", 60*time.Second),
			RatePerSecond:  getEnvFloat("WOO_RATE_PER_SECOND", 5),
			Burst:          getEnvInt("WOO_RATE_BURST", 5),
		})
	}
	return wc
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Strapi.BaseURL == "" {
		return fmt.Errorf("STRAPI_URL must be set")
	}
	if c.Strapi.PageSize <= 0 || c.Strapi.PageSize > 1000 {
		return fmt.Errorf("STRAPI_PAGE_SIZE must be between 1 and 1000")
	}
	if len(c.WooCommerce.Stores) > 0 && c.WooCommerce.Store(c.WooCommerce.DefaultPlatform) == nil {
		return fmt.Errorf("WOO_DEFAULT_PLATFORM %q has no configured store", c.WooCommerce.DefaultPlatform)
	}
	for _, s := range c.WooCommerce.Stores {
		if s.ConsumerKey == "" || s.ConsumerSecret == "" {
			return fmt.Errorf("store %s needs consumer key and secret", s.Platform)
		}
	}
	if c.Job.StaleAfter <= 0 {
		return fmt.Errorf("JOB_STALE_AFTER must be positive")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Strapi.Token == "" {
			return fmt.Errorf("STRAPI_API_TOKEN must be set in production")
		}
		if c.Database.Enabled && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Store returns the store config for a platform, nil when absent
func (w WooCommerceConfig) Store(platform string) *woocommerce.StoreConfig {
	for i := range w.Stores {
		if w.Stores[i].Platform == platform {
			return &w.Stores[i]
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	valueStr := strings.ToLower(os.Getenv(key))
	switch valueStr {
	case "":
		return defaultValue
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
