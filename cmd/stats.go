package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dustin/go-humanize"
	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/keys"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Run a memoized workload and print a cache report",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().Int("calls", 10000, "number of tool calls to issue")
	statsCmd.Flags().Int("distinct", 500, "number of distinct argument sets")
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	calls, _ := cmd.Flags().GetInt("calls")
	distinct, _ := cmd.Flags().GetInt("distinct")
	if calls < 1 || distinct < 1 {
		return fmt.Errorf("calls and distinct must be positive")
	}

	c := cache.New(cfg, nil, logger)
	defer c.Close()

	ctx := cmd.Context()
	var executed int
	tool := func(context.Context) (any, error) {
		executed++
		return map[string]any{"ok": true}, nil
	}

	start := time.Now()
	for i := 0; i < calls; i++ {
		args := map[string]any{"dealer": rand.IntN(distinct)}
		if _, err := c.Memoize(ctx, "lookup_dealer", args, time.Minute, tool); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	s := c.Stats()
	fmt.Println("\n================ CACHE REPORT =================")
	fmt.Printf("Tool calls       : %s\n", humanize.Comma(int64(calls)))
	fmt.Printf("Tool executions  : %s\n", humanize.Comma(int64(executed)))
	fmt.Printf("Local entries    : %s / %s\n", humanize.Comma(int64(s.MemorySize)), humanize.Comma(int64(cfg.MaxEntries)))
	fmt.Printf("Hits / Misses    : %s / %s\n", humanize.Comma(s.Hits), humanize.Comma(s.Misses))
	fmt.Printf("Remote hits/miss : %s / %s\n", humanize.Comma(s.RemoteHits), humanize.Comma(s.RemoteMisses))
	fmt.Printf("Hit rate         : %s\n", s.HitRate)
	fmt.Printf("Throughput       : %s calls/sec\n", humanize.CommafWithDigits(float64(calls)/elapsed.Seconds(), 0))
	fmt.Printf("Sample key       : %s\n", keys.ForTool("lookup_dealer", map[string]any{"dealer": 0}))
	fmt.Println("===============================================")
	return nil
}
