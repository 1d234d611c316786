package cache

import (
	"github.com/charmbracelet/log"
	"github.com/krisalay/tiered-cache/config"
	"github.com/krisalay/tiered-cache/engine"
	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/remote"
	"github.com/krisalay/tiered-cache/types"
	"github.com/krisalay/tiered-cache/writepolicy"
)

/*
New builds a TTLCache from configuration.

The remote tier is chosen here, once: a live REST tier with a background
replicator when the config enables it and carries a URL and token, the
disabled tier otherwise. metrics and logger may be nil.
*/
func New(cfg config.Config, metrics types.Metrics, logger *log.Logger) *TTLCache {
	if logger == nil {
		logger = log.Default().WithPrefix("toolcache")
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	tier := remote.New(cfg.Remote())

	var wp writepolicy.WritePolicy
	if tier.Enabled() {
		wp = writepolicy.NewReplicator(
			tier,
			cfg.ReplicationQueue,
			cfg.ReplicationWorkers,
			cfg.RemoteTimeout,
			metrics,
			logger,
		)
	}

	eng := engine.NewCacheEngine(expiration.Absolute{}, tier, wp, metrics, logger)
	eng.RemoteMinTTL = cfg.RemoteMinTTL
	eng.WarmTTL = cfg.WarmTTL
	eng.RemoteTimeout = cfg.RemoteTimeout

	logger.Debug("cache ready",
		"max_entries", cfg.MaxEntries,
		"prune_floor", cfg.PruneFloor,
		"remote", tier.Enabled())

	return NewTTLCache(cfg.MaxEntries, cfg.PruneFloor, eng)
}
