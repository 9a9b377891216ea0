package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		// Remove quotes if present
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a config value by key.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "notary":
		cfg.Notary = value

	// Vault
	case "vault.backend":
		cfg.Vault.Backend = strings.ToLower(value)

	// Selection
	case "selection.retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Selection.MaxRetries = n
	case "selection.sleep":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Selection.RetrySleep = d

	// Locks
	case "lock.backend":
		cfg.Lock.Backend = strings.ToLower(value)
	case "lock.redis.addr":
		cfg.Lock.RedisAddr = value
	case "lock.redis.password":
		cfg.Lock.RedisPassword = value
	case "lock.redis.db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Lock.RedisDB = n
	case "lock.expiry":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Lock.Expiry = d

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# Klingnet Assets Configuration
#
# Local operator settings only. Transaction shape limits are fixed and
# shared by every participant.

# Data directory (default: ~/.klingnet-assets)
# datadir = ~/.klingnet-assets

# Keystore identity that notarises new issuances
notary = notary

# ============================================================================
# Vault
# ============================================================================

# Storage backend: badger or memory
vault.backend = badger

# ============================================================================
# Coin Selection
# ============================================================================

# Attempts to gather enough unlocked states before giving up
selection.retries = 5
# Sleep between attempts, multiplied by the attempt number
selection.sleep = 100ms

# ============================================================================
# Soft Locks
# ============================================================================

# Backend: memory (single process) or redis (shared between processes)
lock.backend = memory
# lock.redis.addr = 127.0.0.1:6379
# lock.redis.password =
# lock.redis.db = 0
lock.expiry = 5m

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
