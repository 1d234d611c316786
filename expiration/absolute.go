package expiration

import (
	"time"

	"github.com/krisalay/tiered-cache/types"
)

/*
Absolute implements a fixed time-to-live counted from the write.
Reads never push the deadline forward: once now reaches ExpireAt the
entry is dead, no matter how often it was used.
*/
type Absolute struct{}

// IsExpired reports whether now is at or past the entry's deadline.
func (Absolute) IsExpired(ent *types.CacheEntry, now time.Time) bool {
	return !now.Before(ent.ExpireAt)
}

// OnAccess does nothing; access recency is not tracked.
func (Absolute) OnAccess(*types.CacheEntry, time.Time) {}

/*
OnWrite stamps a fresh entry.
- CreatedAt is the write time
- ExpireAt is CreatedAt + ttl, with ttl normalized to at least MinTTL
*/
func (Absolute) OnWrite(ent *types.CacheEntry, now time.Time, ttl time.Duration) {
	ent.CreatedAt = now
	ent.ExpireAt = now.Add(NormalizeTTL(ttl))
}
