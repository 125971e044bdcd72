package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Catalog drivers.
const (
	CatalogPostgres = "postgres"
	CatalogMemory   = "memory"
)

// Storage drivers.
const (
	StorageHTTP  = "http"
	StorageLocal = "local"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Search     SearchConfig
	Ranking    RankingConfig
	Geocode    GeocodeConfig
	Storage    StorageConfig
	Session    SessionConfig
	Retry      RetryConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // Full connection string, preferred over the fields below
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  string
	AllowedMethods  string
	AllowedHeaders  string
	RequestLog      bool
	ShutdownTimeout time.Duration
}

// CatalogConfig selects where listings are read from and written to.
type CatalogConfig struct {
	Driver      string
	FixturePath string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit int // top-K of description search
	MaxLimit     int
	MaxListed    int // listings rendered in one dialogue reply
}

// RankingConfig holds ranking weights configuration
type RankingConfig struct {
	WeightType    float64
	WeightCity    float64
	WeightState   float64
	WeightPurpose float64
	WeightKeyword float64
}

// GeocodeConfig configures the place search provider.
type GeocodeConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	RateLimit float64
}

// StorageConfig configures where listing images are uploaded.
type StorageConfig struct {
	Driver            string
	BaseURL           string
	Bucket            string
	Token             string
	LocalDir          string
	PublicURL         string
	Timeout           time.Duration
	UploadConcurrency int
}

// SessionConfig controls how long idle dialogues and wizards live.
type SessionConfig struct {
	TTL     time.Duration
	Cleanup time.Duration
}

// RetryConfig is the retry policy for geocode and storage calls.
type RetryConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
	// File enables a rotated log file next to stdout when set.
	File string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "ruralmatch"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         getEnv("GIN_MODE", "release"),
			AllowedOrigins:  getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:  getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
			RequestLog:      getEnvAsBool("SERVER_REQUEST_LOG", true),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Catalog: CatalogConfig{
			Driver:      strings.ToLower(getEnv("CATALOG_DRIVER", CatalogPostgres)),
			FixturePath: getEnv("CATALOG_FIXTURE", "data/catalog.json"),
		},
		Search: SearchConfig{
			DefaultLimit: getEnvAsInt("SEARCH_DEFAULT_LIMIT", 3),
			MaxLimit:     getEnvAsInt("SEARCH_MAX_LIMIT", 20),
			MaxListed:    getEnvAsInt("SEARCH_MAX_LISTED", 5),
		},
		Ranking: RankingConfig{
			WeightType:    getEnvAsFloat("RANK_WEIGHT_TYPE", 10),
			WeightCity:    getEnvAsFloat("RANK_WEIGHT_CITY", 15),
			WeightState:   getEnvAsFloat("RANK_WEIGHT_STATE", 10),
			WeightPurpose: getEnvAsFloat("RANK_WEIGHT_PURPOSE", 10),
			WeightKeyword: getEnvAsFloat("RANK_WEIGHT_KEYWORD", 5),
		},
		Geocode: GeocodeConfig{
			BaseURL:   getEnv("GEOCODE_BASE_URL", ""),
			APIKey:    getEnv("GEOCODE_API_KEY", ""),
			Timeout:   getEnvAsDuration("GEOCODE_TIMEOUT", 15*time.Second),
			RateLimit: getEnvAsFloat("GEOCODE_RATE_LIMIT", 5),
		},
		Storage: StorageConfig{
			Driver:            strings.ToLower(getEnv("STORAGE_DRIVER", StorageLocal)),
			BaseURL:           getEnv("STORAGE_BASE_URL", ""),
			Bucket:            getEnv("STORAGE_BUCKET", "imagens"),
			Token:             getEnv("STORAGE_TOKEN", ""),
			LocalDir:          getEnv("STORAGE_LOCAL_DIR", "uploads"),
			PublicURL:         getEnv("STORAGE_PUBLIC_URL", "http://localhost:8080/uploads"),
			Timeout:           getEnvAsDuration("STORAGE_TIMEOUT", 30*time.Second),
			UploadConcurrency: getEnvAsInt("STORAGE_UPLOAD_CONCURRENCY", 4),
		},
		Session: SessionConfig{
			TTL:     getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			Cleanup: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 10*time.Minute),
		},
		Retry: RetryConfig{
			MaxAttempts:    getEnvAsInt("RETRY_MAX_ATTEMPTS", 1),
			InitialBackoff: getEnvAsDuration("RETRY_INITIAL_BACKOFF", 250*time.Millisecond),
			MaxBackoff:     getEnvAsDuration("RETRY_MAX_BACKOFF", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
			File:   getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Driver {
	case CatalogPostgres, CatalogMemory:
	default:
		return eris.Errorf("config: unknown CATALOG_DRIVER %q", c.Catalog.Driver)
	}
	switch c.Storage.Driver {
	case StorageLocal:
	case StorageHTTP:
		if c.Storage.BaseURL == "" {
			return eris.New("config: STORAGE_BASE_URL is required for the http storage driver")
		}
	default:
		return eris.Errorf("config: unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		c.Search.MaxLimit = c.Search.DefaultLimit
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		warnInvalid(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func warnInvalid(key, value string, defaultValue any) {
	zap.L().Warn("invalid config value, using default",
		zap.String("key", key),
		zap.String("value", value),
		zap.Any("default", defaultValue),
	)
}
