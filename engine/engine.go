package engine

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/remote"
	"github.com/krisalay/tiered-cache/types"
	"github.com/krisalay/tiered-cache/writepolicy"
)

const (
	// DefaultRemoteMinTTL is the shortest TTL worth a remote round trip.
	DefaultRemoteMinTTL = 30 * time.Second

	// DefaultWarmTTL is the local TTL given to values found in the remote tier.
	DefaultWarmTTL = 60 * time.Second

	// DefaultRemoteTimeout bounds remote reads.
	DefaultRemoteTimeout = 1500 * time.Millisecond
)

/*
CacheEngine is the policy layer of the cache.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- When data is expired
- Whether a write is replicated to the remote tier
- How the remote tier is consulted on a local miss
- How metrics are recorded

It does NOT:
- Store data
- Handle locking
- Decide eviction order
*/
type CacheEngine struct {

	// Expiration controls when a cache entry is considered dead.
	Expiration expiration.Strategy

	// Remote is the optional secondary tier. It is never nil: a
	// disabled tier is remote.Disabled.
	Remote types.Tier

	// WritePolicy forwards writes to the remote tier without blocking.
	WritePolicy writepolicy.WritePolicy

	// Metrics is an external sink for cache events.
	Metrics types.Metrics

	Logger *log.Logger

	// RemoteMinTTL is the replication floor: shorter-lived writes stay local.
	RemoteMinTTL time.Duration

	// WarmTTL is the local TTL for values pulled from the remote tier.
	WarmTTL time.Duration

	// RemoteTimeout bounds a remote read.
	RemoteTimeout time.Duration

	// Now is the clock. Tests replace it.
	Now func() time.Time
}

/*
NewCacheEngine creates a CacheEngine with default thresholds.
Nil arguments get no-op implementations so the cache never nil-checks them.
*/
func NewCacheEngine(
	exp expiration.Strategy,
	tier types.Tier,
	writePolicy writepolicy.WritePolicy,
	metrics types.Metrics,
	logger *log.Logger,
) *CacheEngine {
	if exp == nil {
		exp = expiration.Absolute{}
	}
	if tier == nil {
		tier = remote.Disabled{}
	}
	if writePolicy == nil {
		writePolicy = writepolicy.None{}
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.Default()
	}

	return &CacheEngine{
		Expiration:    exp,
		Remote:        tier,
		WritePolicy:   writePolicy,
		Metrics:       metrics,
		Logger:        logger,
		RemoteMinTTL:  DefaultRemoteMinTTL,
		WarmTTL:       DefaultWarmTTL,
		RemoteTimeout: DefaultRemoteTimeout,
		Now:           time.Now,
	}
}

// IsExpired checks whether a cache entry is expired at the engine's current time.
func (e *CacheEngine) IsExpired(ent *types.CacheEntry) bool {
	return e.Expiration.IsExpired(ent, e.Now())
}

// OnRead is called every time the cache returns a live local value.
func (e *CacheEngine) OnRead(ent *types.CacheEntry) {
	e.Expiration.OnAccess(ent, e.Now())
}

/*
NewEntry stamps a fresh entry for key with the expiration strategy.
The TTL is normalized there, so the entry always has a deadline.
*/
func (e *CacheEngine) NewEntry(key string, value any, ttl time.Duration) *types.CacheEntry {
	ent := &types.CacheEntry{Key: key, Value: value}
	e.Expiration.OnWrite(ent, e.Now(), ttl)
	return ent
}

/*
OnWrite is called after a caller's write landed in the local store.

The write is handed to the write policy only when the remote tier is live
and the TTL is at least RemoteMinTTL. The policy never blocks.
*/
func (e *CacheEngine) OnWrite(key string, value any, ttl time.Duration) {
	if !e.Remote.Enabled() || ttl < e.RemoteMinTTL {
		return
	}
	e.WritePolicy.OnWrite(key, value, ttl)
}

/*
LoadRemote asks the remote tier for key after a local miss.

Every failure mode (disabled tier, timeout, transport error, bad payload)
is logged at debug level and reported as a plain miss.
*/
func (e *CacheEngine) LoadRemote(ctx context.Context, key string) (any, bool) {
	if !e.Remote.Enabled() {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, e.RemoteTimeout)
	defer cancel()

	v, found, err := e.Remote.Load(ctx, key)
	if err != nil {
		e.Logger.Debug("remote read failed", "key", key, "err", err)
		return nil, false
	}
	return v, found
}

// Close stops background replication.
func (e *CacheEngine) Close() {
	e.WritePolicy.Close()
}
