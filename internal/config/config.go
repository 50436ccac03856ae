package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Supported local database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverEmbedded = "embedded"
)

// Config holds all application configuration
type Config struct {
	Env        string
	Port       string
	BackendURL string
	DataDir    string
	Database   DatabaseConfig
	Sync       *SyncConfig
}

// DatabaseConfig holds local database configuration
type DatabaseConfig struct {
	Driver   string
	Path     string // sqlite file path
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Verbose  bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}

	dataDir := getEnv("DATA_DIR", defaultDataDir())

	return &Config{
		Env:        getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "3420"),
		BackendURL: backendURL,
		DataDir:    dataDir,
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", DriverSQLite),
			Path:     getEnv("DB_PATH", filepath.Join(dataDir, "prokat.db")),
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "prokat"),
			Verbose:  getEnv("DB_VERBOSE", "false") == "true",
		},
		Sync: LoadSyncConfig(),
	}, nil
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".prokat")
	}
	return "./data"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
