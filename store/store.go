package store

import "github.com/krisalay/tiered-cache/types"

/*
This file defines how data is actually stored in the local tier.

The store is a plain map. It does no locking of its own: the cache holds
one mutex around every read-expire-delete, write-insert and prune sequence,
so each of those runs to completion before another one starts.
*/

// Store is the interface used by the cache to store and retrieve entries.
type Store interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry. Deleting a missing key is a no-op.
	Delete(string)

	// Size returns how many entries are stored.
	Size() int

	// Reset drops every entry.
	Reset()
}

type mapStore struct {
	data map[string]*types.CacheEntry
}

func NewMapStore() Store {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	ent, ok := s.data[key]
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.data[key] = ent
}

func (s *mapStore) Delete(key string) {
	delete(s.data, key)
}

func (s *mapStore) Size() int {
	return len(s.data)
}

func (s *mapStore) Reset() {
	s.data = make(map[string]*types.CacheEntry)
}
