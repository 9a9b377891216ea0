package config

import "time"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Vault: VaultConfig{
			Backend: BackendBadger,
		},
		Selection: SelectionConfig{
			MaxRetries: DefaultSelectionRetries,
			RetrySleep: DefaultSelectionSleep,
		},
		Lock: LockConfig{
			Backend:   LockMemory,
			RedisAddr: "127.0.0.1:6379",
			Expiry:    5 * time.Minute,
		},
		Notary: "notary",
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
