package types

import (
	"context"
	"time"
)

// Tier is the contract between the cache and the optional remote secondary store.
type Tier interface {

	/*
		Load is called when the local store misses.

		1. Cache checks memory → key not found
		2. Cache calls Load(key) with a bounded context
		3. Tier fetches from the remote key-value service
		4. Cache warms memory with the result and returns it

		found is false when the remote store has no value for key.
		Any error is treated by the cache as a miss.
	*/
	Load(ctx context.Context, key string) (value any, found bool, err error)

	/*
		Store writes a value to the remote store with its own expiry.

		The cache never waits for this call; it is run by a write policy
		in the background.
	*/
	Store(ctx context.Context, key string, value any, ttl time.Duration) error

	// Enabled reports whether the tier is live. A disabled tier is never called.
	Enabled() bool
}
