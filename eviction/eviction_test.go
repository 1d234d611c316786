package eviction_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/krisalay/tiered-cache/eviction"
)

func TestBatchSize(t *testing.T) {
	cases := []struct {
		size, floor, want int
	}{
		{size: 11, floor: 10, want: 10},    // floor wins over ceil(1.65)
		{size: 100, floor: 10, want: 15},   // exact
		{size: 101, floor: 10, want: 16},   // ceil(15.15)
		{size: 1001, floor: 10, want: 151}, // ceil(150.15)
		{size: 4, floor: 10, want: 4},      // never more than the store holds
		{size: 0, floor: 10, want: 0},
	}
	for _, c := range cases {
		if got := eviction.BatchSize(c.size, c.floor); got != c.want {
			t.Errorf("BatchSize(%d, %d) = %d, want %d", c.size, c.floor, got, c.want)
		}
	}
}

func TestSoonestExpiryOrder(t *testing.T) {
	base := time.Now()
	p := eviction.NewSoonestExpiry()

	p.Track("late", base.Add(3*time.Second))
	p.Track("early", base.Add(1*time.Second))
	p.Track("middle", base.Add(2*time.Second))

	var got []string
	for p.Len() > 0 {
		got = append(got, p.Evict())
	}

	want := []string{"early", "middle", "late"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("eviction order mismatch (-want +got):\n%s", diff)
	}
	if k := p.Evict(); k != "" {
		t.Fatalf("expected empty eviction, got %q", k)
	}
}

func TestSoonestExpiryTieBreaksByInsertion(t *testing.T) {
	deadline := time.Now().Add(time.Minute)
	p := eviction.NewSoonestExpiry()

	p.Track("a", deadline)
	p.Track("b", deadline)
	p.Track("c", deadline)

	if k := p.Evict(); k != "a" {
		t.Fatalf("expected a, got %q", k)
	}
}

func TestSoonestExpiryRetrackMovesKey(t *testing.T) {
	base := time.Now()
	p := eviction.NewSoonestExpiry()

	p.Track("a", base.Add(time.Second))
	p.Track("b", base.Add(2*time.Second))

	// rewriting a with a far deadline moves it behind b
	p.Track("a", base.Add(time.Hour))

	if p.Len() != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", p.Len())
	}
	if k := p.Evict(); k != "b" {
		t.Fatalf("expected b, got %q", k)
	}
}

func TestSoonestExpiryRemoveAndReset(t *testing.T) {
	base := time.Now()
	p := eviction.NewSoonestExpiry()

	p.Track("a", base.Add(time.Second))
	p.Track("b", base.Add(2*time.Second))
	p.Remove("a")
	p.Remove("missing")

	if k := p.Evict(); k != "b" {
		t.Fatalf("expected b after removing a, got %q", k)
	}

	p.Track("c", base)
	p.Reset()
	if p.Len() != 0 {
		t.Fatalf("expected empty policy after Reset, got %d", p.Len())
	}
}
