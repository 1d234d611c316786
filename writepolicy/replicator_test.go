package writepolicy_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/krisalay/tiered-cache/writepolicy"
)

//
// ================= TEST TIER =================
//

type recordingTier struct {
	mu      sync.Mutex
	writes  map[string]time.Duration
	fail    bool
	release chan struct{}
}

func newRecordingTier() *recordingTier {
	return &recordingTier{writes: make(map[string]time.Duration)}
}

func (t *recordingTier) Load(context.Context, string) (any, bool, error) { return nil, false, nil }

func (t *recordingTier) Store(ctx context.Context, key string, value any, ttl time.Duration) error {
	if t.release != nil {
		<-t.release
	}
	if t.fail {
		return errors.New("network down")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes[key] = ttl
	return nil
}

func (t *recordingTier) Enabled() bool { return true }

func (t *recordingTier) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.writes)
}

type countingMetrics struct {
	ok, failed atomic.Int64
}

func (m *countingMetrics) Hit()        {}
func (m *countingMetrics) Miss()       {}
func (m *countingMetrics) RemoteHit()  {}
func (m *countingMetrics) RemoteMiss() {}
func (m *countingMetrics) Eviction()   {}
func (m *countingMetrics) Expire()     {}
func (m *countingMetrics) Replicate(ok bool) {
	if ok {
		m.ok.Add(1)
	} else {
		m.failed.Add(1)
	}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

//
// ================= TESTS =================
//

func TestReplicatorDeliversWrites(t *testing.T) {
	tier := newRecordingTier()
	m := &countingMetrics{}
	r := writepolicy.NewReplicator(tier, 16, 2, time.Second, m, quietLogger())

	r.OnWrite("a", 1, time.Minute)
	r.OnWrite("b", 2, 2*time.Minute)

	// Close drains everything queued
	r.Close()

	if tier.count() != 2 {
		t.Fatalf("expected 2 remote writes, got %d", tier.count())
	}
	if tier.writes["b"] != 2*time.Minute {
		t.Fatalf("ttl not forwarded, got %v", tier.writes["b"])
	}
	if m.ok.Load() != 2 {
		t.Fatalf("expected 2 successful replications, got %d", m.ok.Load())
	}
}

func TestReplicatorSwallowsFailures(t *testing.T) {
	tier := newRecordingTier()
	tier.fail = true
	m := &countingMetrics{}
	r := writepolicy.NewReplicator(tier, 16, 1, time.Second, m, quietLogger())

	r.OnWrite("a", 1, time.Minute)
	r.Close()

	if m.failed.Load() != 1 {
		t.Fatalf("expected 1 failed replication, got %d", m.failed.Load())
	}
}

func TestReplicatorDropsWhenFull(t *testing.T) {
	tier := newRecordingTier()
	tier.release = make(chan struct{})
	m := &countingMetrics{}
	r := writepolicy.NewReplicator(tier, 1, 1, time.Second, m, quietLogger())

	done := make(chan struct{})
	go func() {
		// the worker blocks on the first write, the second fills the queue,
		// everything after that is dropped without blocking this goroutine
		for i := 0; i < 10; i++ {
			r.OnWrite("k", i, time.Minute)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("OnWrite blocked on a full queue")
	}

	close(tier.release)
	r.Close()

	if m.failed.Load() == 0 {
		t.Fatal("expected dropped writes to be counted")
	}
}

func TestReplicatorWriteAfterClose(t *testing.T) {
	tier := newRecordingTier()
	r := writepolicy.NewReplicator(tier, 4, 1, time.Second, nil, quietLogger())
	r.Close()
	r.Close()

	// must not panic
	r.OnWrite("late", 1, time.Minute)

	if tier.count() != 0 {
		t.Fatalf("expected no writes after close, got %d", tier.count())
	}
}

type sequenceTier struct {
	mu   sync.Mutex
	seen map[string][]int
}

func (t *sequenceTier) Load(context.Context, string) (any, bool, error) { return nil, false, nil }

func (t *sequenceTier) Store(ctx context.Context, key string, value any, ttl time.Duration) error {
	// give other workers a chance to overtake
	time.Sleep(50 * time.Microsecond)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[key] = append(t.seen[key], value.(int))
	return nil
}

func (t *sequenceTier) Enabled() bool { return true }

func TestReplicatorKeepsPerKeyOrder(t *testing.T) {
	tier := &sequenceTier{seen: make(map[string][]int)}
	r := writepolicy.NewReplicator(tier, 4096, 4, time.Second, nil, quietLogger())

	keys := []string{"dealer:1", "dealer:2", "dealer:3", "dealer:4", "dealer:5"}
	const writes = 100
	for i := 0; i < writes; i++ {
		for _, k := range keys {
			r.OnWrite(k, i, time.Minute)
		}
	}
	r.Close()

	for _, k := range keys {
		got := tier.seen[k]
		if len(got) != writes {
			t.Fatalf("%s: expected %d writes, got %d", k, writes, len(got))
		}
		for i, v := range got {
			if v != i {
				t.Fatalf("%s: write %d arrived at position %d", k, v, i)
			}
		}
	}
}
