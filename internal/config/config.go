package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kapu/kdp-keyword-go/internal/constants"
)

type Config struct {
	Server   ServerConfig
	Research ResearchConfig
	Sources  SourcesConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Addr    string
	GinMode string
}

type ResearchConfig struct {
	MaxSeeds       int
	Breadth        int
	MaxCandidates  int
	Concurrency    int
	Attempts       int
	CallTimeout    time.Duration
	KeywordTimeout time.Duration
	RequestTimeout time.Duration
}

type SourcesConfig struct {
	Country            string
	RequestsPerMinute  int
	UserAgent          string
	EnableGoogle       bool
	EnableDuckDuckGo   bool
	EnableAmazon       bool
	EnableTrends       bool
	EnableMarketplace  bool
	EnableVariations   bool
	EnableIdeas        bool
	YouTubeAPIKey      string
	YouTubeCredentials string
	YouTubeToken       string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIModel        string
}

type StorageConfig struct {
	Driver     string
	SQLitePath string
	Postgres   PostgresConfig
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type LoggingConfig struct {
	Level string
	File  string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	limits := constants.ResearchLimits
	cfg := &Config{
		Server: ServerConfig{
			Addr:    getEnv("SERVER_ADDR", ":8080"),
			GinMode: getEnv("GIN_MODE", "release"),
		},
		Research: ResearchConfig{
			MaxSeeds:       getEnvInt("RESEARCH_MAX_SEEDS", limits.MaxSeeds),
			Breadth:        getEnvInt("RESEARCH_BREADTH", limits.Breadth),
			MaxCandidates:  getEnvInt("RESEARCH_MAX_CANDIDATES", limits.MaxCandidates),
			Concurrency:    getEnvInt("RESEARCH_CONCURRENCY", limits.Concurrency),
			Attempts:       getEnvInt("RESEARCH_ATTEMPTS", limits.Attempts),
			CallTimeout:    getEnvDuration("RESEARCH_CALL_TIMEOUT", limits.CallTimeout),
			KeywordTimeout: getEnvDuration("RESEARCH_KEYWORD_TIMEOUT", limits.KeywordTimeout),
			RequestTimeout: getEnvDuration("RESEARCH_REQUEST_TIMEOUT", limits.RequestTimeout),
		},
		Sources: SourcesConfig{
			Country:            strings.ToUpper(getEnv("SOURCE_COUNTRY", "US")),
			RequestsPerMinute:  getEnvInt("SOURCE_REQUESTS_PER_MINUTE", constants.APIConfig.RequestsPerMinute),
			UserAgent:          getEnv("SOURCE_USER_AGENT", constants.APIConfig.DefaultUserAgent),
			EnableGoogle:       getEnvBool("SOURCE_GOOGLE_ENABLED", true),
			EnableDuckDuckGo:   getEnvBool("SOURCE_DUCKDUCKGO_ENABLED", true),
			EnableAmazon:       getEnvBool("SOURCE_AMAZON_ENABLED", true),
			EnableTrends:       getEnvBool("SOURCE_TRENDS_ENABLED", true),
			EnableMarketplace:  getEnvBool("SOURCE_MARKETPLACE_ENABLED", true),
			EnableVariations:   getEnvBool("SOURCE_VARIATIONS_ENABLED", false),
			EnableIdeas:        getEnvBool("SOURCE_IDEAS_ENABLED", false),
			YouTubeAPIKey:      getEnv("YOUTUBE_API_KEY", ""),
			YouTubeCredentials: getEnv("YOUTUBE_CREDENTIALS_FILE", ""),
			YouTubeToken:       getEnv("YOUTUBE_TOKEN_FILE", "token.json"),
			GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
			GeminiModel:        getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
			SQLitePath: getEnv("SQLITE_PATH", "data/kdp_keywords.db"),
			Postgres: PostgresConfig{
				Host:     getEnv("POSTGRES_HOST", "localhost"),
				Port:     getEnvInt("POSTGRES_PORT", 5432),
				User:     getEnv("POSTGRES_USER", "kdp"),
				Password: getEnv("POSTGRES_PASSWORD", ""),
				Database: getEnv("POSTGRES_DB", "kdp_keywords"),
			},
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", "logs/research.log"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.Storage.Postgres.Host == "" || c.Storage.Postgres.Database == "" {
			return fmt.Errorf("POSTGRES_HOST and POSTGRES_DB are required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Research.MaxSeeds <= 0 {
		return fmt.Errorf("RESEARCH_MAX_SEEDS must be positive")
	}
	if c.Research.Breadth <= 0 {
		return fmt.Errorf("RESEARCH_BREADTH must be positive")
	}
	if c.Research.MaxCandidates < c.Research.MaxSeeds {
		return fmt.Errorf("RESEARCH_MAX_CANDIDATES must be at least RESEARCH_MAX_SEEDS")
	}
	if c.Research.Concurrency <= 0 {
		return fmt.Errorf("RESEARCH_CONCURRENCY must be positive")
	}
	if c.Research.Attempts <= 0 {
		return fmt.Errorf("RESEARCH_ATTEMPTS must be positive")
	}
	if c.Research.CallTimeout <= 0 || c.Research.KeywordTimeout <= 0 || c.Research.RequestTimeout <= 0 {
		return fmt.Errorf("research timeouts must be positive")
	}
	if c.Sources.EnableIdeas && c.Sources.GeminiAPIKey == "" && c.Sources.OpenAIAPIKey == "" {
		return fmt.Errorf("SOURCE_IDEAS_ENABLED requires GEMINI_API_KEY or OPENAI_API_KEY")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("15s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
