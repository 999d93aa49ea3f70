// Package config reads the daemon's settings from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Sync    SyncConfig
	Storage StorageConfig
	Alerts  AlertsConfig
}

// ServerConfig is where the local API listens.
type ServerConfig struct {
	Port string
	Host string
}

// BackendConfig points at the SpendVolt REST backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SyncConfig controls background syncing.
type SyncConfig struct {
	Interval      time.Duration
	SyncOnStartup bool
}

// StorageConfig selects the Azure-backed stores. Each one falls back to an
// in-memory implementation when its service URL is unset.
type StorageConfig struct {
	BlobServiceURL  string
	QueueServiceURL string
	TableServiceURL string
	CacheContainer  string
}

// AlertsConfig enables budget warning emails.
type AlertsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	timeout, err := time.ParseDuration(getEnv("BACKEND_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BACKEND_TIMEOUT: %w", err)
	}

	interval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "127.0.0.1"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_URL", ""), "/"),
			Timeout: timeout,
		},
		Sync: SyncConfig{
			Interval:      interval,
			SyncOnStartup: getBoolEnv("SYNC_ON_STARTUP", true),
		},
		Storage: StorageConfig{
			BlobServiceURL:  os.Getenv("BLOB_SERVICE_URL"),
			QueueServiceURL: os.Getenv("QUEUE_SERVICE_URL"),
			TableServiceURL: os.Getenv("TABLE_SERVICE_URL"),
			CacheContainer:  getEnv("CACHE_CONTAINER", "spendvolt-cache"),
		},
		Alerts: AlertsConfig{
			Enabled: getBoolEnv("BUDGET_ALERTS_ENABLED", false),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.Sync.Interval < 0 {
		return nil, fmt.Errorf("SYNC_INTERVAL must not be negative")
	}

	return cfg, nil
}

// Addr is the listen address for the local API.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
