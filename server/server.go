// Package server exposes a cache over HTTP for inspection and manual warm-up.
package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	api "github.com/krisalay/tiered-cache/api"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SourceHeader carries the tier that served a GET.
const SourceHeader = "X-Cache-Source"

// DefaultTTL is used by PUT when no ttl query parameter is given.
const DefaultTTL = 5 * time.Minute

const maxValueBytes = 1 << 20

type Server struct {
	router chi.Router
	cache  api.Cache
	logger *log.Logger
}

// New builds the routes. gatherer may be nil, in which case /metrics is not mounted.
func New(c api.Cache, gatherer prometheus.Gatherer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{router: chi.NewRouter(), cache: c, logger: logger}

	s.router.Use(middleware.Recoverer)
	s.router.Get("/stats", s.handleStats)
	s.router.Delete("/cache", s.handleClear)
	s.router.Get("/cache/{key}", s.handleGet)
	s.router.Put("/cache/{key}", s.handlePut)
	s.router.Delete("/cache/{key}", s.handleRemove)
	if gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.cache.Clear()
	s.logger.Info("cache cleared", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	res := s.cache.GetAsync(r.Context(), key)
	w.Header().Set(SourceHeader, string(res.Source))
	if !res.Hit {
		s.writeError(w, http.StatusNotFound, "key not found")
		return
	}
	s.writeJSON(w, http.StatusOK, res.Value)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	ttl := DefaultTTL
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid ttl: "+err.Error())
			return
		}
		ttl = d
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxValueBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "value exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		s.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		s.writeError(w, http.StatusBadRequest, "body must be JSON: "+err.Error())
		return
	}

	s.cache.Set(key, value, ttl)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	s.cache.Remove(chi.URLParam(r, "key"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("write response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
