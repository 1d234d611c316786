// This file implements soonest-to-expire-first eviction.

package eviction

import (
	"container/heap"
	"time"
)

// expiryNode represents one key inside the heap.
type expiryNode struct {
	key      string
	expireAt time.Time

	// seq orders keys with the same deadline by insertion
	seq uint64

	// index is the node's position in the heap, kept up to date by Swap
	index int
}

// expiryHeap is a min-heap ordered by deadline.
type expiryHeap []*expiryNode

func (h expiryHeap) Len() int { return len(h) }

func (h expiryHeap) Less(i, j int) bool {
	if h[i].expireAt.Equal(h[j].expireAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].expireAt.Before(h[j].expireAt)
}

func (h expiryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap) Push(x any) {
	n := x.(*expiryNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *expiryHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	n.index = -1
	return n
}

/*
SoonestExpiry evicts the key whose deadline is closest.

This is not LRU: reads are not tracked, so a hot key with a short TTL
goes before a cold key with a long one.
*/
type SoonestExpiry struct {
	// nodes maps cache keys to their heap nodes so a rewrite can fix the heap in O(log n)
	nodes map[string]*expiryNode
	heap  expiryHeap
	seq   uint64
}

func NewSoonestExpiry() *SoonestExpiry {
	return &SoonestExpiry{nodes: make(map[string]*expiryNode)}
}

// Track adds a key or moves an existing key to its new deadline.
func (s *SoonestExpiry) Track(key string, expireAt time.Time) {
	s.seq++
	if n, ok := s.nodes[key]; ok {
		n.expireAt = expireAt
		n.seq = s.seq
		heap.Fix(&s.heap, n.index)
		return
	}
	n := &expiryNode{key: key, expireAt: expireAt, seq: s.seq}
	s.nodes[key] = n
	heap.Push(&s.heap, n)
}

// Remove stops tracking key. Unknown keys are ignored.
func (s *SoonestExpiry) Remove(key string) {
	n, ok := s.nodes[key]
	if !ok {
		return
	}
	heap.Remove(&s.heap, n.index)
	delete(s.nodes, key)
}

// Evict pops the key with the earliest deadline.
func (s *SoonestExpiry) Evict() string {
	if len(s.heap) == 0 {
		return ""
	}
	n := heap.Pop(&s.heap).(*expiryNode)
	delete(s.nodes, n.key)
	return n.key
}

func (s *SoonestExpiry) Len() int { return len(s.heap) }

func (s *SoonestExpiry) Reset() {
	s.nodes = make(map[string]*expiryNode)
	s.heap = nil
	s.seq = 0
}
