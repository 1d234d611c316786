package writepolicy

import "time"

/*
This file defines what a "write policy" is.

A write policy decides what happens to the remote tier when the cache
stores a key. The cache engine does not care which policy is used.
It simply calls these methods.
*/

/*
WritePolicy is the contract that all write policies must follow.
*/
type WritePolicy interface {

	/*
		OnWrite is called after the cache stored a key locally.
		It must return without waiting on the network.
	*/
	OnWrite(key string, value any, ttl time.Duration)

	/*
		Close is called when the cache is shutting down.
	*/
	Close()
}

// None keeps writes local.
type None struct{}

func (None) OnWrite(string, any, time.Duration) {}
func (None) Close()                             {}
