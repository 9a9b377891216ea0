// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Ledger limits: constants in limits.go, identical for every participant
//   - Local settings: storage, locking, selection and logging, per operator
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Storage backends for the vault.
const (
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Soft-lock backends.
const (
	LockMemory = "memory"
	LockRedis  = "redis"
)

// Config holds operator-local runtime configuration.
type Config struct {
	// Core
	DataDir string `conf:"datadir"`

	// Asset state store
	Vault VaultConfig

	// Coin selection retry policy
	Selection SelectionConfig

	// Advisory soft locks
	Lock LockConfig

	// Notary identity used for new issuances
	Notary string `conf:"notary"`

	// Logging
	Log LogConfig
}

// VaultConfig holds asset state store settings.
type VaultConfig struct {
	Backend string `conf:"vault.backend"` // badger or memory
}

// SelectionConfig controls how hard the vault tries to gather unlocked
// states before reporting what it found.
type SelectionConfig struct {
	MaxRetries int           `conf:"selection.retries"`
	RetrySleep time.Duration `conf:"selection.sleep"` // multiplied by the attempt number
}

// LockConfig holds soft-lock settings.
type LockConfig struct {
	Backend       string        `conf:"lock.backend"` // memory or redis
	RedisAddr     string        `conf:"lock.redis.addr"`
	RedisPassword string        `conf:"lock.redis.password"`
	RedisDB       int           `conf:"lock.redis.db"`
	Expiry        time.Duration `conf:"lock.expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingnet-assets
//	macOS:   ~/Library/Application Support/KlingnetAssets
//	Windows: %APPDATA%\KlingnetAssets
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingnet-assets"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "KlingnetAssets")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "KlingnetAssets")
		}
		return filepath.Join(home, "AppData", "Roaming", "KlingnetAssets")
	default:
		return filepath.Join(home, ".klingnet-assets")
	}
}

// VaultDir returns the vault database directory.
func (c *Config) VaultDir() string {
	return filepath.Join(c.DataDir, "vault")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "assets.conf")
}
