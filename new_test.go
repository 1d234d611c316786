package cache_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	cache "github.com/krisalay/tiered-cache"
	"github.com/krisalay/tiered-cache/config"
	"github.com/krisalay/tiered-cache/types"
)

// kvServer is a minimal REST key-value service.
func kvServer(t *testing.T) (*httptest.Server, *sync.Map) {
	t.Helper()
	var data sync.Map

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/get/"):
			v, ok := data.Load(strings.TrimPrefix(r.URL.Path, "/get/"))
			if !ok {
				_, _ = w.Write([]byte(`{"result":null}`))
				return
			}
			out, _ := json.Marshal(map[string]string{"result": v.(string)})
			_, _ = w.Write(out)
		case strings.HasPrefix(r.URL.Path, "/set/"):
			body, _ := io.ReadAll(r.Body)
			data.Store(strings.TrimPrefix(r.URL.Path, "/set/"), string(body))
			_, _ = w.Write([]byte(`{"result":"OK"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &data
}

func TestNewWithoutRemote(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{"TOOLCACHE_MAX_ENTRIES": "5"})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	c := cache.New(cfg, nil, quietLogger())
	defer c.Close()

	c.Set("k", "v", time.Hour)
	if s := c.Stats(); s.RemoteEnabled || s.MemorySize != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestNewSharesValuesAcrossInstances(t *testing.T) {
	srv, data := kvServer(t)

	cfg, err := config.LoadFrom(map[string]string{
		"TOOLCACHE_REMOTE_ENABLED": "true",
		"TOOLCACHE_REMOTE_URL":     srv.URL,
		"TOOLCACHE_REMOTE_TOKEN":   "test-token",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	writer := cache.New(cfg, nil, quietLogger())
	writer.Set("tool:price", map[string]any{"msrp": 32000.0}, time.Minute)
	writer.Close()

	if _, ok := data.Load("tool:price"); !ok {
		t.Fatal("value was not replicated")
	}

	// a second instance starts cold and finds the value remotely
	reader := cache.New(cfg, nil, quietLogger())
	defer reader.Close()

	r := reader.GetAsync(context.Background(), "tool:price")
	if !r.Hit || r.Source != types.SourceRemote {
		t.Fatalf("expected remote hit, got %+v", r)
	}
	if m, ok := r.Value.(map[string]any); !ok || m["msrp"] != 32000.0 {
		t.Fatalf("unexpected value %#v", r.Value)
	}
}

func TestNewRemoteDownIsMiss(t *testing.T) {
	srv, _ := kvServer(t)
	url := srv.URL
	srv.Close()

	cfg, err := config.LoadFrom(map[string]string{
		"TOOLCACHE_REMOTE_ENABLED": "true",
		"TOOLCACHE_REMOTE_URL":     url,
		"TOOLCACHE_REMOTE_TOKEN":   "test-token",
		"TOOLCACHE_REMOTE_TIMEOUT": "200ms",
	})
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	c := cache.New(cfg, nil, quietLogger())
	defer c.Close()

	c.Set("k", "v", time.Minute) // replication fails in the background
	if r := c.GetAsync(context.Background(), "other"); r != types.Miss {
		t.Fatalf("expected miss, got %+v", r)
	}
	if r := c.Get("k"); !r.Hit {
		t.Fatal("local write must survive a failed replication")
	}
}
