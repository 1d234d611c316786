package types

import "time"

// CacheEntry is owned by the store. A write replaces the whole entry;
// nothing updates an entry in place.
type CacheEntry struct {
	Key       string
	Value     any
	CreatedAt time.Time
	ExpireAt  time.Time
}
