package writepolicy

import (
	"context"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/krisalay/tiered-cache/types"
)

// This file implements fire-and-forget replication to the remote tier.

const defaultTimeout = 1500 * time.Millisecond

// writeReq represents one pending write that needs to be sent to the remote tier.
type writeReq struct {
	key   string
	value any
	ttl   time.Duration
}

/*
Replicator copies cache writes to the remote tier in the background.

The caller's write never waits: requests go into a buffered channel and
a fixed set of workers drains it. Nothing about a replicated write is
reported back to the caller.

Each worker owns one queue and a key always hashes to the same queue, so
writes to one key reach the remote tier in the order they were made.
*/
type Replicator struct {
	tier    types.Tier
	timeout time.Duration
	metrics types.Metrics
	logger  *log.Logger

	// queues hold pending write requests, one per worker.
	queues []chan writeReq

	// mu guards closed so OnWrite never sends on a closed channel.
	mu     sync.RWMutex
	closed bool

	// wg is used to wait for the workers to finish during shutdown.
	wg sync.WaitGroup
}

// NewReplicator starts workers goroutines draining buffer pending writes split evenly across them.
// Each write gets its own context bounded by timeout, detached from the caller.
func NewReplicator(
	tier types.Tier,
	buffer int,
	workers int,
	timeout time.Duration,
	metrics types.Metrics,
	logger *log.Logger,
) *Replicator {
	if buffer < 1 {
		buffer = 1
	}
	if workers < 1 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = log.Default()
	}

	perQueue := buffer / workers
	if perQueue < 1 {
		perQueue = 1
	}

	r := &Replicator{
		tier:    tier,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		queues:  make([]chan writeReq, workers),
	}

	r.wg.Add(workers)
	for i := range r.queues {
		r.queues[i] = make(chan writeReq, perQueue)
		go r.worker(r.queues[i])
	}

	return r
}

// OnWrite queues the write. If the queue is full, or the replicator is
// closed, the write is dropped: the remote tier is only a warm cache.
func (r *Replicator) OnWrite(key string, value any, ttl time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	q := r.queues[xxhash.Sum64String(key)%uint64(len(r.queues))]

	select {
	case q <- writeReq{key: key, value: value, ttl: ttl}:
	default:
		r.logger.Debug("replication queue full, dropping write", "key", key)
		r.metrics.Replicate(false)
	}
}

func (r *Replicator) worker(q <-chan writeReq) {
	defer r.wg.Done()

	for req := range q {
		r.replicate(req)
	}
}

func (r *Replicator) replicate(req writeReq) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.tier.Store(ctx, req.key, req.value, req.ttl); err != nil {
		r.logger.Debug("remote write failed", "key", req.key, "err", err)
		r.metrics.Replicate(false)
		return
	}
	r.metrics.Replicate(true)
}

/*
Close shuts the replicator down.
1. Stop accepting writes
2. Close the queues
3. Wait for the workers to flush what was already queued
*/
func (r *Replicator) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, q := range r.queues {
		close(q)
	}
	r.mu.Unlock()

	r.wg.Wait()
}
