package config

import "time"

// Transaction shape limits. Every participant must agree on these.
const (
	MaxTxInputs       = 2500
	MaxTxOutputs      = 2500
	MaxTxCommands     = 16
	MaxCommandSigners = 64
)

// Coin selection defaults.
const (
	DefaultSelectionRetries = 5
	DefaultSelectionSleep   = 100 * time.Millisecond
)
