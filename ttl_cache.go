package cache

import (
	"context"
	"sync"
	"time"

	"github.com/krisalay/tiered-cache/engine"
	evict "github.com/krisalay/tiered-cache/eviction"
	"github.com/krisalay/tiered-cache/expiration"
	"github.com/krisalay/tiered-cache/store"
	"github.com/krisalay/tiered-cache/types"
	"golang.org/x/sync/singleflight"
)

// DefaultPruneFloor is the minimum number of keys removed by one prune.
const DefaultPruneFloor = 10

/*
TTLCache is the main cache implementation.
This struct is the orchestrator that connects:
- the local store
- eviction
- expiration
- the remote tier and replication (through the engine)
- statistics
*/
type TTLCache struct {
	// mu makes every local operation atomic: read-expire-delete,
	// write-insert-prune, clear. It is never held across a network call.
	mu sync.Mutex

	store store.Store

	// eviction orders keys by deadline for pruning.
	eviction evict.Policy

	// engine contains the "rules" of the cache: TTL, remote tier, write policy, metrics.
	engine *engine.CacheEngine

	// maxEntries bounds the store; pruneFloor is the smallest prune batch.
	maxEntries int
	pruneFloor int

	// counters behind Stats, guarded by mu
	hits         int64
	misses       int64
	remoteHits   int64
	remoteMisses int64

	// sf makes concurrent Memoize calls for one key run the wrapped function once.
	sf singleflight.Group
}

func NewTTLCache(
	maxEntries int,
	pruneFloor int,
	eng *engine.CacheEngine,
) *TTLCache {
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, nil, nil, nil)
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	if pruneFloor < 1 {
		pruneFloor = DefaultPruneFloor
	}

	return &TTLCache{
		store:      store.NewMapStore(),
		eviction:   evict.NewSoonestExpiry(),
		engine:     eng,
		maxEntries: maxEntries,
		pruneFloor: pruneFloor,
	}
}

/*
Get retrieves a value from the local store.
*/
func (c *TTLCache) Get(key string) types.Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.getLocked(key)
}

func (c *TTLCache) getLocked(key string) types.Result {
	if ent, ok := c.store.Get(key); ok {

		// Check if entry is expired
		if c.engine.IsExpired(ent) {
			c.engine.Metrics.Expire()
			c.removeLocked(key)
		} else {
			c.hits++
			c.engine.Metrics.Hit()
			c.engine.OnRead(ent)

			return types.Result{Hit: true, Value: ent.Value, Source: types.SourceLocal}
		}
	}

	c.misses++
	c.engine.Metrics.Miss()

	return types.Miss
}

// peek returns a live local value without touching the counters.
func (c *TTLCache) peek(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.store.Get(key)
	if !ok || c.engine.IsExpired(ent) {
		return nil, false
	}
	return ent.Value, true
}

/*
GetAsync retrieves a value from the local store, falling back to the remote tier.
*/
func (c *TTLCache) GetAsync(ctx context.Context, key string) types.Result {
	if r := c.Get(key); r.Hit || !c.engine.Remote.Enabled() {
		return r
	}

	// The lock is released while the remote tier is consulted.
	v, found := c.engine.LoadRemote(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !found {
		c.remoteMisses++
		c.engine.Metrics.RemoteMiss()
		return types.Miss
	}

	c.remoteHits++
	c.engine.Metrics.RemoteHit()

	// A local write that landed during the remote call wins over the warm copy.
	if ent, ok := c.store.Get(key); !ok || c.engine.IsExpired(ent) {
		c.putLocked(c.engine.NewEntry(key, v, c.engine.WarmTTL))
	}

	return types.Result{Hit: true, Value: v, Source: types.SourceRemote}
}

/*
Set stores value under key for ttl. A non-positive ttl becomes the minimum TTL.
*/
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	ttl = expiration.NormalizeTTL(ttl)
	ent := c.engine.NewEntry(key, value, ttl)

	c.mu.Lock()
	c.putLocked(ent)
	c.mu.Unlock()

	// Hand the write to the remote tier; this never blocks.
	c.engine.OnWrite(key, value, ttl)
}

func (c *TTLCache) putLocked(ent *types.CacheEntry) {
	c.store.Put(ent.Key, ent)
	c.eviction.Track(ent.Key, ent.ExpireAt)
	c.pruneLocked()
}

/*
pruneLocked removes the soonest-to-expire entries once the store is over its bound.
One prune removes max(pruneFloor, 15% of the store).
*/
func (c *TTLCache) pruneLocked() {
	size := c.store.Size()
	if size <= c.maxEntries {
		return
	}

	n := evict.BatchSize(size, c.pruneFloor)
	for i := 0; i < n; i++ {
		k := c.eviction.Evict()
		if k == "" {
			break
		}
		c.store.Delete(k)
		c.engine.Metrics.Eviction()
	}
}

/*
Remove deletes a key from the local store immediately.
*/
func (c *TTLCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
}

func (c *TTLCache) removeLocked(key string) {
	c.store.Delete(key)
	c.eviction.Remove(key)
}

/*
TTL returns remaining time-to-live of a key, or -2 if it is missing or expired.
*/
func (c *TTLCache) TTL(key string) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.store.Get(key)
	if !ok || c.engine.IsExpired(ent) {
		return -2
	}
	return ent.ExpireAt.Sub(c.engine.Now())
}

// Len returns the number of entries in the local store.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.store.Size()
}

// Stats returns a snapshot of the counters and the local store size.
func (c *TTLCache) Stats() types.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return types.Stats{
		Hits:          c.hits,
		Misses:        c.misses,
		RemoteHits:    c.remoteHits,
		RemoteMisses:  c.remoteMisses,
		MemorySize:    c.store.Size(),
		RemoteEnabled: c.engine.Remote.Enabled(),
		HitRate:       types.FormatHitRate(c.hits, c.misses, c.remoteHits, c.remoteMisses),
	}
}

/*
Clear empties the local store and zeroes every counter in one step.
The remote tier keeps its data.
*/
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store.Reset()
	c.eviction.Reset()
	c.hits, c.misses, c.remoteHits, c.remoteMisses = 0, 0, 0, 0
}

/*
Close gracefully shuts down the cache.
Replication writes already queued are flushed before it returns.
*/
func (c *TTLCache) Close() {
	c.engine.Close()
}
