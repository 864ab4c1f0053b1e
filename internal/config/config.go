package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Feed      FeedConfig
	Sync      SyncConfig
	Estimator EstimatorConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// FeedConfig holds external feed provider settings
type FeedConfig struct {
	BaseURL           string
	APIKey            string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
}

// SyncConfig holds polling cadences and the seasons to mirror
type SyncConfig struct {
	LivePollInterval  time.Duration
	StandingsInterval time.Duration
	SeasonIDs         []string
}

// EstimatorConfig holds the tunable minute-estimation fallback offsets.
// FirstHalfStartOffset models the typical delay between scheduled kickoff
// and live data starting to flow; SecondHalfRegulation is the assumed length
// of regulation first-half play when deriving a second-half anchor.
type EstimatorConfig struct {
	FirstHalfStartOffset time.Duration
	SecondHalfRegulation time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "livescore_engine"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Feed: FeedConfig{
			BaseURL:           getEnv("FEED_BASE_URL", ""),
			APIKey:            getEnv("FEED_API_KEY", ""),
			RequestTimeout:    getEnvDuration("FEED_REQUEST_TIMEOUT", 15*time.Second),
			RequestsPerSecond: getEnvFloat("FEED_REQUESTS_PER_SECOND", 2.0),
		},
		Sync: SyncConfig{
			LivePollInterval:  getEnvDuration("LIVE_POLL_INTERVAL", 30*time.Second),
			StandingsInterval: getEnvDuration("STANDINGS_SYNC_INTERVAL", 6*time.Hour),
			SeasonIDs:         getEnvList("STANDINGS_SEASON_IDS"),
		},
		Estimator: EstimatorConfig{
			FirstHalfStartOffset: getEnvDuration("FIRST_HALF_START_OFFSET", 3*time.Minute),
			SecondHalfRegulation: getEnvDuration("SECOND_HALF_REGULATION", 45*time.Minute),
		},
	}

	return config, nil
}

// ValidateFeed checks the settings the feed client cannot run without.
// Called by entry points that talk to the provider; the migration runner
// does not.
func (c *Config) ValidateFeed() error {
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("FEED_BASE_URL is required")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// GetAdminDSN returns a connection string against the default postgres
// database, used to create the target database when it does not exist yet.
func (c *Config) GetAdminDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration parses a duration environment variable (e.g. "30s", "6h")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

// getEnvFloat parses a float environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

// getEnvList parses a comma-separated environment variable
func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
