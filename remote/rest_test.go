package remote_test

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/krisalay/tiered-cache/remote"
)

//
// ================= FAKE KEY-VALUE SERVICE =================
//

type fakeKV struct {
	mu     sync.Mutex
	token  string
	data   map[string]string
	expiry map[string]string
}

func newFakeKV(token string) *fakeKV {
	return &fakeKV{token: token, data: make(map[string]string), expiry: make(map[string]string)}
}

func (f *fakeKV) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer "+f.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/get/"):
		key := strings.TrimPrefix(r.URL.Path, "/get/")
		v, ok := f.data[key]
		if !ok {
			_, _ = w.Write([]byte(`{"result":null}`))
			return
		}
		out, _ := json.Marshal(map[string]string{"result": v})
		_, _ = w.Write(out)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/set/"):
		key := strings.TrimPrefix(r.URL.Path, "/set/")
		body, _ := io.ReadAll(r.Body)
		f.data[key] = string(body)
		f.expiry[key] = r.URL.Query().Get("EX")
		_, _ = w.Write([]byte(`{"result":"OK"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newClient(t *testing.T, h http.Handler) *remote.REST {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return remote.NewREST(remote.Options{Enabled: true, URL: srv.URL + "/", Token: "secret", Timeout: time.Second})
}

//
// ================= TESTS =================
//

func TestStoreThenLoad(t *testing.T) {
	ctx := context.Background()
	kv := newFakeKV("secret")
	c := newClient(t, kv)

	value := map[string]any{"vin": "1HGCM82633A004352", "trims": []any{"LX", "EX"}}
	if err := c.Store(ctx, "tool:abc", value, 90*time.Second); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	got, found, err := c.Load(ctx, "tool:abc")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if diff := cmp.Diff(value, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	kv.mu.Lock()
	ex := kv.expiry["tool:abc"]
	kv.mu.Unlock()
	if ex != "90" {
		t.Fatalf("expected EX=90, got %q", ex)
	}
}

func TestLoadMissing(t *testing.T) {
	c := newClient(t, newFakeKV("secret"))

	v, found, err := c.Load(context.Background(), "nope")
	if err != nil || found || v != nil {
		t.Fatalf("expected clean miss, got v=%v found=%v err=%v", v, found, err)
	}
}

func TestBadTokenIsStatusError(t *testing.T) {
	srv := httptest.NewServer(newFakeKV("other"))
	t.Cleanup(srv.Close)
	c := remote.NewREST(remote.Options{Enabled: true, URL: srv.URL, Token: "secret"})

	_, _, err := c.Load(context.Background(), "k")
	if !errors.Is(err, remote.ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
}

func TestMalformedPayload(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result": "{not json"}`))
	}))

	_, _, err := c.Load(context.Background(), "k")
	if !errors.Is(err, remote.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestLoadTimesOut(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(block)
		srv.Close()
	})

	c := remote.NewREST(remote.Options{Enabled: true, URL: srv.URL, Token: "secret", Timeout: 50 * time.Millisecond})

	start := time.Now()
	_, _, err := c.Load(context.Background(), "slow")
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied, call took %v", time.Since(start))
	}
}

func TestKeysArePathEscaped(t *testing.T) {
	paths := make(chan string, 1)
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.EscapedPath()
		_, _ = w.Write([]byte(`{"result":null}`))
	}))

	_, _, _ = c.Load(context.Background(), "a/b c")
	if gotPath := <-paths; gotPath != "/get/a%2Fb%20c" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestNewSelectsTier(t *testing.T) {
	cases := []struct {
		name string
		opts remote.Options
		want bool
	}{
		{"flag off", remote.Options{URL: "http://x", Token: "t"}, false},
		{"no url", remote.Options{Enabled: true, Token: "t"}, false},
		{"no token", remote.Options{Enabled: true, URL: "http://x"}, false},
		{"complete", remote.Options{Enabled: true, URL: "http://x", Token: "t"}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := remote.New(c.opts).Enabled(); got != c.want {
				t.Fatalf("Enabled() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestDisabledTier(t *testing.T) {
	d := remote.Disabled{}
	if _, found, err := d.Load(context.Background(), "k"); found || !errors.Is(err, remote.ErrDisabled) {
		t.Fatalf("expected ErrDisabled miss, got found=%v err=%v", found, err)
	}
	if err := d.Store(context.Background(), "k", 1, time.Minute); !errors.Is(err, remote.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestSeconds(t *testing.T) {
	cases := map[time.Duration]int64{
		0:                       1,
		time.Millisecond:        1,
		time.Second:             1,
		1500 * time.Millisecond: 2,
		30 * time.Second:        30,
		-time.Second:            1,
		math.MaxInt64:           int64(math.MaxInt64/time.Second) + 1,
	}
	for in, want := range cases {
		if got := remote.Seconds(in); got != want {
			t.Errorf("Seconds(%v) = %d, want %d", in, got, want)
		}
	}
}
