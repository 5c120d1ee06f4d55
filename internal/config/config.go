package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB     DBConfig
	Server ServerConfig
	Import ImportConfig
	Query  QueryConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// ImportConfig holds settings for the GeoNames import pipeline
type ImportConfig struct {
	DataDir     string
	SourceURLs  []string
	CityFile    string
	Languages   []string
	CityTypes   []string
	BatchSize   int
	Force       bool
	Schedule    string
	HTTPTimeout time.Duration
}

// QueryConfig holds settings for the read side
type QueryConfig struct {
	DefaultLanguage       string
	AutocompleteMinLength int
	CacheTTL              time.Duration
}

// DefaultSourceURLs are the GeoNames dump locations tried in order.
var DefaultSourceURLs = []string{"https://download.geonames.org/export/dump/"}

// DefaultCityTypes are the GeoNames feature codes imported as cities.
// See http://www.geonames.org/export/codes.html
var DefaultCityTypes = []string{"PPL", "PPLA", "PPLC", "PPLA2", "PPLA3", "PPLA4"}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "gazetteer" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	// PostgreSQL connection string
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "gazetteer"),
			Password: getEnv("DB_PASSWORD", "gazetteer_password"),
			Name:     getEnv("DB_NAME", "gazetteer"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("APP_PORT", "8080"),
		},
		Import: ImportConfig{
			DataDir:     getEnv("IMPORT_DATA_DIR", "data"),
			SourceURLs:  getEnvAsSlice("IMPORT_SOURCE_URLS", DefaultSourceURLs),
			CityFile:    getEnv("IMPORT_CITY_FILE", "cities15000.zip"),
			Languages:   getEnvAsSlice("IMPORT_LANGUAGES", []string{"en"}),
			CityTypes:   getEnvAsSlice("IMPORT_CITY_TYPES", DefaultCityTypes),
			BatchSize:   getEnvAsInt("IMPORT_BATCH_SIZE", 5000),
			Force:       getEnvAsBool("IMPORT_FORCE", false),
			Schedule:    getEnv("IMPORT_SCHEDULE", ""),
			HTTPTimeout: getEnvAsDuration("IMPORT_HTTP_TIMEOUT", 5*time.Minute),
		},
		Query: QueryConfig{
			DefaultLanguage:       getEnv("DEFAULT_LANGUAGE", "en"),
			AutocompleteMinLength: getEnvAsInt("AUTOCOMPLETE_MIN_LENGTH", 2),
			CacheTTL:              getEnvAsDuration("QUERY_CACHE_TTL", 10*time.Minute),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
