package smsverify

import (
	"errors"
	"time"
)

// Config defines a public type used by smsverify APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	RateLimit RateLimitConfig
	Code      CodeConfig
	Store     StoreConfig
	Reaper    ReaperConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig defines a public type used by smsverify APIs.
//
// RateLimitConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateLimitConfig struct {
	// Window is the fixed rate-limit window. A phone number may be sent at
	// most MaxPerWindow codes inside one window; every attempt counts,
	// accepted or not.
	Window       time.Duration
	MaxPerWindow int

	// EnableIPThrottle adds a second fixed-window counter keyed by the
	// caller IP attached via [WithClientIP]. Off by default.
	EnableIPThrottle bool
	MaxPerWindowIP   int
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig defines a public type used by smsverify APIs.
//
// CodeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CodeConfig struct {
	// Expiry is the lifetime of an issued code. Expiry is enforced by the
	// engine on every access; backend TTLs are only a reaping aid.
	Expiry time.Duration
	Digits int
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by smsverify APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
REAPER CONFIG
====================================
*/

// ReaperConfig defines a public type used by smsverify APIs.
//
// ReaperConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ReaperConfig struct {
	Enabled  bool
	Interval time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by smsverify APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by smsverify APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: a 60 second window of 3
// sends per phone, 10 minute code expiry, 6-digit codes, audit and metrics
// enabled, reaper disabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		RateLimit: RateLimitConfig{
			Window:         60 * time.Second,
			MaxPerWindow:   3,
			MaxPerWindowIP: 10,
		},
		Code: CodeConfig{
			Expiry: 600 * time.Second,
			Digits: 6,
		},
		Store: StoreConfig{
			RedisPrefix: "smsv",
		},
		Reaper: ReaperConfig{
			Enabled:  false,
			Interval: time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	// No reference types inside Config today; value copy is a deep copy.
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c Config) Validate() error {
	if c.RateLimit.Window <= 0 {
		return errors.New("RateLimit.Window must be positive")
	}
	if c.RateLimit.MaxPerWindow <= 0 {
		return errors.New("RateLimit.MaxPerWindow must be positive")
	}
	if c.RateLimit.EnableIPThrottle && c.RateLimit.MaxPerWindowIP <= 0 {
		return errors.New("RateLimit.MaxPerWindowIP must be positive when IP throttle is enabled")
	}
	if c.Code.Expiry <= 0 {
		return errors.New("Code.Expiry must be positive")
	}
	if c.Code.Digits < 6 || c.Code.Digits > 10 {
		return errors.New("Code.Digits must be between 6 and 10")
	}
	if c.Store.RedisPrefix == "" {
		return errors.New("Store.RedisPrefix must not be empty")
	}
	if c.Reaper.Enabled && c.Reaper.Interval <= 0 {
		return errors.New("Reaper.Interval must be positive when the reaper is enabled")
	}
	return nil
}
