package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// SyncConfig holds synchronization configuration
type SyncConfig struct {
	Enabled       bool `json:"enabled"`
	SyncOnStartup bool `json:"sync_on_startup"`

	// Seconds between automatic sync passes while running.
	Interval int `json:"interval"`

	// Seconds between connectivity probes of the backend /health endpoint.
	HealthInterval int `json:"health_interval"`

	// Seconds before a single backend request is abandoned.
	RequestTimeout int `json:"request_timeout"`
}

// LoadSyncConfig loads sync configuration from environment or file
func LoadSyncConfig() *SyncConfig {
	// Try to load from file first
	if configPath := os.Getenv("SYNC_CONFIG_PATH"); configPath != "" {
		if cfg, err := loadSyncConfigFromFile(configPath); err == nil {
			return cfg
		}
	}

	return &SyncConfig{
		Enabled:        getBoolEnv("SYNC_ENABLED", true),
		SyncOnStartup:  getBoolEnv("SYNC_ON_STARTUP", true),
		Interval:       getIntEnv("SYNC_INTERVAL", 60),
		HealthInterval: getIntEnv("SYNC_HEALTH_INTERVAL", 30),
		RequestTimeout: getIntEnv("SYNC_REQUEST_TIMEOUT", 15),
	}
}

// loadSyncConfigFromFile loads sync config from JSON file
func loadSyncConfigFromFile(path string) (*SyncConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg SyncConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Helper functions for environment variables

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
