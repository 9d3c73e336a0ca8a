package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL   PostgreSQLConfig
	Server       ServerConfig
	Catalog      CatalogConfig
	Selection    SelectionConfig
	Alternatives AlternativesConfig
	Session      SessionConfig
	Logging      LoggingConfig
	OpenAI       OpenAIConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred over the parts below
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
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	TurnTimeout    time.Duration
}

// CatalogConfig holds catalog gateway configuration
type CatalogConfig struct {
	QueryLimit   int
	QueryTimeout time.Duration
	// AllowMemoryFallback serves from an in-memory catalog when PostgreSQL is unreachable
	AllowMemoryFallback bool
	SeedFile            string // JSON array of catalog items for the in-memory catalog
}

// SelectionConfig holds selection engine configuration
type SelectionConfig struct {
	Workers int
}

// AlternativesConfig holds paging limits for the alternatives lookup
type AlternativesConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	Backend  string // memory or redis
	RedisURL string
	TTL      time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string
	FilePath string
	IsProd   bool
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	Timeout         time.Duration
	Enabled         bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "furnisher"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			TurnTimeout:    getEnvAsDuration("TURN_TIMEOUT", 45*time.Second),
		},
		Catalog: CatalogConfig{
			QueryLimit:   getEnvAsInt("CATALOG_QUERY_LIMIT", 60),
			QueryTimeout: getEnvAsDuration("CATALOG_QUERY_TIMEOUT", 5*time.Second),

			AllowMemoryFallback: getEnvAsBool("CATALOG_ALLOW_MEMORY_FALLBACK", false),
			SeedFile:            getEnv("CATALOG_SEED_FILE", ""),
		},
		Selection: SelectionConfig{
			Workers: getEnvAsInt("SELECTION_WORKERS", 6),
		},
		Alternatives: AlternativesConfig{
			DefaultLimit: getEnvAsInt("ALTERNATIVES_DEFAULT_LIMIT", 6),
			MaxLimit:     getEnvAsInt("ALTERNATIVES_MAX_LIMIT", 50),
		},
		Session: SessionConfig{
			Backend:  getEnv("SESSION_BACKEND", "memory"),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			TTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE_PATH", "furnisher.log"),
			IsProd:   getEnv("GIN_MODE", "release") == "release",
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.2),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			Timeout:         getEnvAsDuration("OPENAI_TIMEOUT", 12*time.Second),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
	}

	if cfg.Session.Backend != "memory" && cfg.Session.Backend != "redis" {
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q, must be memory or redis", cfg.Session.Backend)
	}
	if cfg.Selection.Workers <= 0 {
		cfg.Selection.Workers = 1
	}

	return cfg, nil
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
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
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
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
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
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
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
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}
