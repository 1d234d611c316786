package cache

import (
	"context"
	"time"

	"github.com/krisalay/tiered-cache/types"
)

/*
Cache defines the PUBLIC API of the tiered TTL cache.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (eviction, expiration, locking, remote replication)
are hidden behind this interface.

None of these methods return an error: a failing remote tier only ever
shows up as a miss.
*/
type Cache interface {

	/*
		Get looks up key in the local store only.

		BEHAVIOR:
		-------------------
		1. If the key exists and is NOT expired:
		   - Return {Hit: true, Source: local}

		2. If the key exists but is expired:
		   - Delete it
		   - Return a miss

		3. If the key does NOT exist:
		   - Return a miss
	*/
	Get(key string) types.Result

	/*
		GetAsync is Get plus the remote tier.

		BEHAVIOR:
		-------------------
		1. Local hit → returned as is
		2. Local miss and a live remote tier:
		   - Ask the remote tier, bounded by a timeout
		   - On success warm the local store with a short fixed TTL
		   - Return {Hit: true, Source: remote}
		3. Anything else (no tier, timeout, error, bad payload) → miss
	*/
	GetAsync(ctx context.Context, key string) types.Result

	/*
		Set stores a key-value pair with a time-to-live.

		BEHAVIOR:
		---------
		- Non-positive TTLs are raised to the minimum TTL
		- Replaces any previous value (last writer wins)
		- Prunes the store if it grew past its bound
		- Replicates to the remote tier in the background when the TTL is
		  long enough; the call never waits for that
	*/
	Set(key string, value any, ttl time.Duration)

	/*
		Remove deletes a key from the local store immediately.
		Removing a missing key is safe. The remote tier is not touched.
	*/
	Remove(key string)

	/*
		TTL returns the remaining time-to-live for a key.

		RETURN VALUES:
		--------------
		> 0 : Duration remaining before expiration
		-2  : Key does not exist or is already expired
	*/
	TTL(key string) time.Duration

	// Len returns the number of entries in the local store, expired ones included.
	Len() int

	// Stats returns the counters, local size and hit rate.
	Stats() types.Stats

	// Clear empties the local store and zeroes every counter.
	Clear()

	/*
		Close stops background replication, flushing writes already queued.
		Call it on shutdown.
	*/
	Close()
}
