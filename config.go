package authflow

import (
	"errors"
	"time"
)

// Config carries all tunable engine behavior. Instances are set up once
// through the [Builder] and treated as immutable afterwards.
type Config struct {
	Session    SessionConfig
	RememberMe RememberMeConfig
	Username   UsernameConfig
	Email      EmailConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig bounds session-scoped state. MaxLifetime is the host's
// maximum session lifetime; it doubles as the TTL for update flags, so a
// flag can never outlive every session it could apply to.
type SessionConfig struct {
	MaxLifetime time.Duration
	RedisPrefix string
}

/*
====================================
REMEMBER ME CONFIG
====================================
*/

// RememberMeConfig controls the durable token. ExpiryJitter is the window
// for the random component added to the payload expiry; it exists to avoid
// fleet-wide synchronized token expiry. MinTokenLength is the cheap
// tamper/corruption filter applied before any decryption attempt.
type RememberMeConfig struct {
	ExpiryJitter   time.Duration
	MinTokenLength int
}

/*
====================================
IDENTITY CONFIG
====================================
*/

// UsernameConfig lists the reserved words (chat emotes) that usernames may
// not start with or closely resemble.
type UsernameConfig struct {
	ReservedWords []string
}

// EmailConfig lists disallowed email domains, loaded once at process start.
// Matching is case-insensitive against the domain after the last '@'.
type EmailConfig struct {
	BlacklistedDomains []string
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters. When disabled, all metric
// operations are no-ops.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			MaxLifetime: 2 * time.Hour,
			RedisPrefix: "af",
		},
		RememberMe: RememberMeConfig{
			ExpiryJitter:   28 * 24 * time.Hour,
			MinTokenLength: 64,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Session.MaxLifetime <= 0 {
		return errors.New("Session.MaxLifetime must be positive")
	}
	if c.RememberMe.ExpiryJitter < 0 {
		return errors.New("RememberMe.ExpiryJitter must not be negative")
	}
	if c.RememberMe.MinTokenLength <= 0 {
		return errors.New("RememberMe.MinTokenLength must be positive")
	}
	return nil
}

func cloneConfig(c Config) Config {
	out := c
	out.Username.ReservedWords = append([]string(nil), c.Username.ReservedWords...)
	out.Email.BlacklistedDomains = append([]string(nil), c.Email.BlacklistedDomains...)
	return out
}
