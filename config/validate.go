package config

import "fmt"

// Validate checks runtime config for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if cfg.DataDir == "" {
		return fmt.Errorf("datadir must not be empty")
	}
	switch cfg.Vault.Backend {
	case BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("vault.backend must be %q or %q", BackendBadger, BackendMemory)
	}
	if cfg.Selection.MaxRetries < 1 {
		return fmt.Errorf("selection.retries must be at least 1")
	}
	if cfg.Selection.RetrySleep < 0 {
		return fmt.Errorf("selection.sleep must not be negative")
	}
	switch cfg.Lock.Backend {
	case LockMemory:
	case LockRedis:
		if cfg.Lock.RedisAddr == "" {
			return fmt.Errorf("lock.backend=redis requires lock.redis.addr")
		}
		if cfg.Lock.Expiry <= 0 {
			return fmt.Errorf("lock.expiry must be positive")
		}
	default:
		return fmt.Errorf("lock.backend must be %q or %q", LockMemory, LockRedis)
	}
	if cfg.Notary == "" {
		return fmt.Errorf("notary must name a keystore identity")
	}
	return nil
}
