package config

import (
	"time"
)

// RetryConfig controls how often an upstream AI call is re-attempted.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
}

// GetRetryConfig returns the AI retry configuration.
// In test environments the intervals are shortened so tests stay fast.
func (c Config) GetRetryConfig() RetryConfig {
	if c.IsTest() {
		return RetryConfig{MaxRetries: c.AIMaxRetries, InitialInterval: 10 * time.Millisecond, MaxInterval: 50 * time.Millisecond, Multiplier: 2.0}
	}
	return RetryConfig{
		MaxRetries:      c.AIMaxRetries,
		InitialInterval: c.AIBackoffInitialInterval,
		MaxInterval:     c.AIBackoffMaxInterval,
		Multiplier:      c.AIBackoffMultiplier,
	}
}
