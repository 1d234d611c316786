package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.
*/
type Metrics interface {

	// Hit is called when the local store returns a live value.
	Hit()

	// Miss is called when the local store does not have a live value.
	Miss()

	// RemoteHit is called when the remote tier answers a local miss.
	RemoteHit()

	// RemoteMiss is called when the remote tier was consulted and had nothing,
	// or failed.
	RemoteMiss()

	// Eviction is called for every key removed by pruning.
	Eviction()

	// Expire is called when a read finds a key past its TTL and deletes it.
	Expire()

	// Replicate is called once a background write to the remote tier finishes.
	Replicate(ok bool)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

It lets the cache run without an external sink and without
nil checks on every event.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) RemoteHit()     {}
func (NoopMetrics) RemoteMiss()    {}
func (NoopMetrics) Eviction()      {}
func (NoopMetrics) Expire()        {}
func (NoopMetrics) Replicate(bool) {}
