// Package config loads cache settings from the environment, with optional
// overrides from a config file or command-line flags bound through viper.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/krisalay/tiered-cache/remote"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TOOLCACHE_"

// Config holds every recognized cache option.
type Config struct {
	// MaxEntries bounds the local store. Crossing it triggers a prune.
	MaxEntries int `env:"MAX_ENTRIES" envDefault:"1000"`

	// PruneFloor is the minimum number of keys one prune removes.
	PruneFloor int `env:"PRUNE_FLOOR" envDefault:"10"`

	RemoteEnabled bool   `env:"REMOTE_ENABLED" envDefault:"false"`
	RemoteURL     string `env:"REMOTE_URL"`
	RemoteToken   string `env:"REMOTE_TOKEN"`

	// RemoteMinTTL is the shortest TTL that is replicated.
	RemoteMinTTL time.Duration `env:"REMOTE_MIN_TTL" envDefault:"30s"`

	// WarmTTL is the local TTL for values found in the remote tier.
	WarmTTL time.Duration `env:"WARM_TTL" envDefault:"60s"`

	// RemoteTimeout bounds every remote call.
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" envDefault:"1500ms"`

	ReplicationQueue   int `env:"REPLICATION_QUEUE" envDefault:"1024"`
	ReplicationWorkers int `env:"REPLICATION_WORKERS" envDefault:"2"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from TOOLCACHE_* environment variables.
func Load() (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom reads the configuration from the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the cache cannot run with.
func (c Config) Validate() error {
	if c.MaxEntries < 1 {
		return fmt.Errorf("max entries must be positive, got %d", c.MaxEntries)
	}
	if c.PruneFloor < 1 {
		return fmt.Errorf("prune floor must be positive, got %d", c.PruneFloor)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("remote timeout must be positive, got %v", c.RemoteTimeout)
	}
	return nil
}

// RemoteConfigured reports whether the remote tier should be live.
func (c Config) RemoteConfigured() bool {
	return c.Remote().Configured()
}

// Remote returns the options for the remote tier.
func (c Config) Remote() remote.Options {
	return remote.Options{
		Enabled: c.RemoteEnabled,
		URL:     c.RemoteURL,
		Token:   c.RemoteToken,
		Timeout: c.RemoteTimeout,
	}
}

/*
Apply overlays every key that is set in v (config file, bound flag or
viper-managed env) onto c. Unset keys keep the environment value.

Recognized keys:

	max_entries, prune_floor, log_level,
	remote.enabled, remote.url, remote.token,
	remote.min_ttl, remote.warm_ttl, remote.timeout,
	replication.queue, replication.workers
*/
func (c Config) Apply(v *viper.Viper) (Config, error) {
	if v.IsSet("max_entries") {
		c.MaxEntries = v.GetInt("max_entries")
	}
	if v.IsSet("prune_floor") {
		c.PruneFloor = v.GetInt("prune_floor")
	}
	if v.IsSet("log_level") {
		c.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("remote.enabled") {
		c.RemoteEnabled = v.GetBool("remote.enabled")
	}
	if v.IsSet("remote.url") {
		c.RemoteURL = v.GetString("remote.url")
	}
	if v.IsSet("remote.token") {
		c.RemoteToken = v.GetString("remote.token")
	}
	if v.IsSet("remote.min_ttl") {
		c.RemoteMinTTL = v.GetDuration("remote.min_ttl")
	}
	if v.IsSet("remote.warm_ttl") {
		c.WarmTTL = v.GetDuration("remote.warm_ttl")
	}
	if v.IsSet("remote.timeout") {
		c.RemoteTimeout = v.GetDuration("remote.timeout")
	}
	if v.IsSet("replication.queue") {
		c.ReplicationQueue = v.GetInt("replication.queue")
	}
	if v.IsSet("replication.workers") {
		c.ReplicationWorkers = v.GetInt("replication.workers")
	}
	return c, c.Validate()
}
