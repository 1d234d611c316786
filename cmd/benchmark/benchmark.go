package main

import (
	"fmt"
	"sync"
	"time"

	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/engine"
	"github.com/krisalay/tiered-cache/expiration"
)

// ================= BENCHMARK =================

func main() {
	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	// ---------------- Cache Config ----------------
	const (
		capacity    = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
		writeEvery  = 10
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Write ratio  :", fmt.Sprintf("1/%d", writeEvery))
	fmt.Println("---------------------------------")

	// ---------------- Cache Engine ----------------
	eng := engine.NewCacheEngine(expiration.Absolute{}, nil, nil, nil, nil)

	c := cache.NewTTLCache(capacity, cache.DefaultPruneFloor, eng)

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, time.Minute)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				key := fmt.Sprintf("key-%d", (id*opsPerG+j)%preloadKeys)
				if j%writeEvery == 0 {
					c.Set(key, j, time.Minute)
					continue
				}
				c.Get(key)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Hit Rate         : %s\n", c.Stats().HitRate)
	fmt.Println("=========================================")

	c.Close()
}
