package eviction

import "time"

/*
This file defines how the cache decides what to remove when it runs out of space.
*/

/*
Policy is the interface that all eviction strategies must follow.

The cache does NOT care how eviction works internally.
It only calls these methods, always while holding its own lock.
*/
type Policy interface {

	// Track is called whenever a key is written. A key that is already
	// tracked gets its deadline replaced.
	Track(key string, expireAt time.Time)

	// Remove is called when a key leaves the store for any reason other
	// than Evict (explicit removal, read-time expiry).
	Remove(key string)

	// Evict picks the next victim and stops tracking it.
	// It returns "" when nothing is tracked.
	Evict() string

	// Len returns the number of tracked keys.
	Len() int

	// Reset drops all tracking state.
	Reset()
}

// PrunePercent is the share of the store, in percent, removed by one prune.
const PrunePercent = 15

/*
BatchSize returns how many keys one prune removes from a store holding size entries:
max(floor, ceil(size * PrunePercent / 100)), never more than size.

The floor keeps a store under steady pressure from pruning one key per write.
*/
func BatchSize(size, floor int) int {
	n := (size*PrunePercent + 99) / 100
	if n < floor {
		n = floor
	}
	if n > size {
		n = size
	}
	return n
}
