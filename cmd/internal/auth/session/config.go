package session

import (
	"os"
	"time"
)

// Config defines the runtime parameters of the session subsystem.
type Config struct {
	// TTL is the idle time after which a session expires.
	TTL time.Duration

	// SweepInterval is how often the reaper scans for expired sessions.
	SweepInterval time.Duration
}

// DefaultConfig returns the defaults: 90 seconds of idle tolerance, swept
// every 30 seconds.
func DefaultConfig() Config {
	return Config{
		TTL:           90 * time.Second,
		SweepInterval: 30 * time.Second,
	}
}

// LoadConfigFromEnv loads session configuration from environment variables.
//
// Optional (values must be valid Go duration strings):
//   - RELAY_SESSION_TTL
//   - RELAY_SESSION_SWEEP_INTERVAL
//
// Returns ErrConfig if a set variable is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("RELAY_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.TTL = d
	}

	if v := os.Getenv("RELAY_SESSION_SWEEP_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, ErrConfig
		}
		cfg.SweepInterval = d
	}

	return cfg, nil
}
