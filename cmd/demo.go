package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	cache "github.com/krisalay/tiered-cache"
	"github.com/spf13/cobra"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through misses, hits, expiry, memoization and pruning",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	// small enough to watch a prune happen
	cfg.MaxEntries = 20
	cfg.PruneFloor = 3

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("EVICTION POLICY : SOONEST-EXPIRY")
	fmt.Println("TTL STRATEGY    : Absolute")
	fmt.Println("CAPACITY        :", cfg.MaxEntries, "keys")
	fmt.Println("REMOTE TIER     :", cfg.RemoteConfigured())

	c := cache.New(cfg, nil, logger)

	// ====================================================
	fmt.Println("\n==================== 1) CACHE MISS ====================")
	r := c.GetAsync(ctx, "dealer:42")
	fmt.Printf("CACHE  → GET dealer:42 = %v (source %s)\n", r.Value, r.Source)

	// ====================================================
	fmt.Println("\n==================== 2) CACHE HIT ====================")
	c.Set("dealer:42", map[string]any{"name": "Bay Motors"}, time.Minute)
	r = c.Get("dealer:42")
	fmt.Printf("CACHE  → GET dealer:42 = %v (source %s)\n", r.Value, r.Source)

	// ====================================================
	fmt.Println("\n==================== 3) TTL EXPIRATION ====================")
	c.Set("quote", "temp-value", 500*time.Millisecond)
	fmt.Println("CACHE  → SET quote (TTL = 500ms)")

	time.Sleep(time.Second)

	r = c.Get("quote")
	fmt.Println("CACHE  → GET quote after TTL hit =", r.Hit)

	// ====================================================
	fmt.Println("\n==================== 4) MEMOIZE ====================")

	var calls atomic.Int32
	lookup := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		return []string{"sedan", "suv"}, nil
	}

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			v, _ := c.Memoize(ctx, "search_inventory", map[string]any{"make": "honda", "year": 2021}, time.Minute, lookup)
			fmt.Printf("GOROUTINE-%d → search_inventory = %v\n", id, v)
		}(i)
	}
	wg.Wait()
	fmt.Println("TOOL   → calls:", calls.Load())

	// ====================================================
	fmt.Println("\n==================== 5) PRUNING ====================")

	for i := 0; i < 30; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, time.Duration(i+1)*time.Second)
	}
	fmt.Println("CACHE  → entries after 30 writes =", c.Len())
	fmt.Println("CACHE  → k0 survived =", c.Get("k0").Hit)
	fmt.Println("CACHE  → dealer:42 survived =", c.Get("dealer:42").Hit)

	// ====================================================
	fmt.Println("\n==================== 6) REMOVE ====================")

	c.Remove("dealer:42")
	fmt.Println("CACHE  → GET dealer:42 after remove =", c.Get("dealer:42").Hit)

	// ====================================================
	s := c.Stats()
	fmt.Println("\n==================== STATS ====================")
	fmt.Printf("HITS          : %d\n", s.Hits)
	fmt.Printf("MISSES        : %d\n", s.Misses)
	fmt.Printf("REMOTE HITS   : %d\n", s.RemoteHits)
	fmt.Printf("REMOTE MISSES : %d\n", s.RemoteMisses)
	fmt.Printf("HIT RATE      : %s\n", s.HitRate)

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	c.Close()
	fmt.Println("SYSTEM → cache closed cleanly")
	return nil
}
