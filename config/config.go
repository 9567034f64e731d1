// Package config loads relay configuration from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds the relay server configuration.
type Config struct {
	Addr         string // listen address, default ":8080"
	JWTSecret    string // HMAC secret for token verification
	DBPath       string // SQLite database path
	HistoryLimit int    // messages replayed on join

	ReadBufferSize  int
	WriteBufferSize int

	BridgeEnabled bool // cross-instance Redis bridge, default off
}

// Default returns the default relay configuration.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		JWTSecret:       "change-me-in-production",
		DBPath:          "relay.db",
		HistoryLimit:    50,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// FromEnv loads configuration from environment variables, falling back
// to defaults for any missing values.
func FromEnv() *Config {
	cfg := Default()

	if addr := os.Getenv("RELAY_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}
	if limitStr := os.Getenv("HISTORY_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			cfg.HistoryLimit = limit
		}
	}
	switch os.Getenv("RELAY_BRIDGE") {
	case "1", "true", "on":
		cfg.BridgeEnabled = true
	}
	return cfg
}
