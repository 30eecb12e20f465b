package config

import (
	"fmt"
	"time"
)

// ChargersConfig names the physical charging slots. Slot identities are the
// 1-based indexes of this list.
type ChargersConfig struct {
	Names []string `json:"names"`
}

// SetDefaults applies sane defaults.
func (c *ChargersConfig) SetDefaults() {
	if len(c.Names) == 0 {
		c.Names = []string{"Charger A", "Charger B"}
	}
}

// Validate checks mandatory fields.
func (c ChargersConfig) Validate() error {
	if len(c.Names) == 0 {
		return fmt.Errorf("at least one charger is required")
	}
	seen := map[string]bool{}
	for _, n := range c.Names {
		if n == "" {
			return fmt.Errorf("charger names must not be empty")
		}
		if seen[n] {
			return fmt.Errorf("duplicate charger name %q", n)
		}
		seen[n] = true
	}
	return nil
}

// ChargingConfig tunes the estimation model.
type ChargingConfig struct {
	// AmbientF is the ambient temperature in Fahrenheit fed to the
	// charging-rate model.
	AmbientF float64 `json:"ambient_f"`
}

// SetDefaults applies sane defaults.
func (c *ChargingConfig) SetDefaults() {
	if c.AmbientF == 0 {
		c.AmbientF = 75
	}
}

// Validate checks the temperature is plausible.
func (c ChargingConfig) Validate() error {
	if c.AmbientF < -40 || c.AmbientF > 140 {
		return fmt.Errorf("ambient_f %v out of range", c.AmbientF)
	}
	return nil
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	// Backend is "memory" or "postgres".
	Backend string `json:"backend"`
	DSN     string `json:"dsn"`
}

// SetDefaults applies sane defaults.
func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
}

// Validate checks mandatory fields.
func (c StoreConfig) Validate() error {
	switch c.Backend {
	case "memory":
	case "postgres":
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
	return nil
}

// CacheConfig holds the Redis read-model settings.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Addr       string `json:"addr"`
	Password   string `json:"password"`
	DB         int    `json:"db"`
	TTLSeconds int    `json:"ttl_seconds"`
}

// SetDefaults applies sane defaults.
func (c *CacheConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.TTLSeconds <= 0 {
		c.TTLSeconds = 60
	}
}

// TTL returns the snapshot lifetime as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// APIConfig holds the HTTP listener settings.
type APIConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
