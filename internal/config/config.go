// Package config loads engine-wide tunables: cache TTL and capacity, the
// repository root, and the lock's stale threshold and retry budget. Loading
// follows an env-override-after-file-load precedence: a YAML file is read
// first if present, then VIDETICKET_* environment variables override it.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every engine-wide tunable.
type Config struct {
	Root string `yaml:"root"`

	Cache struct {
		TTL        time.Duration `yaml:"ttl"`
		MaxEntries int           `yaml:"max_entries"`
	} `yaml:"cache"`

	Lock struct {
		StaleThreshold time.Duration `yaml:"stale_threshold"`
		MaxAttempts    int           `yaml:"max_attempts"`
		RetryDelay     time.Duration `yaml:"retry_delay"`
	} `yaml:"lock"`
}

// DefaultConfig returns the engine's out-of-the-box tunables.
func DefaultConfig() Config {
	var c Config
	c.Root = ".vibe-ticket"
	c.Cache.TTL = 300 * time.Second
	c.Cache.MaxEntries = 0 // unbounded
	c.Lock.StaleThreshold = 30 * time.Second
	c.Lock.MaxAttempts = 10
	c.Lock.RetryDelay = 100 * time.Millisecond
	return c
}

// Load reads configPath if it exists, falling back to DefaultConfig, then
// applies environment overrides via os.Getenv.
func Load(configPath string) (Config, error) {
	return LoadWithEnv(configPath, os.Getenv)
}

// LoadWithEnv is Load with an injectable getenv, for test isolation.
func LoadWithEnv(configPath string, getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()

	if b, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	applyEnvOverrides(&cfg, getenv)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, getenv func(string) string) {
	if v := getenv("VIDETICKET_ROOT"); v != "" {
		cfg.Root = v
	}
	if v := getenv("VIDETICKET_CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.TTL = time.Duration(n) * time.Second
		}
	}
	if v := getenv("VIDETICKET_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := getenv("VIDETICKET_LOCK_STALE_THRESHOLD_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Lock.StaleThreshold = time.Duration(n) * time.Second
		}
	}
}
