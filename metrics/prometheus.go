// Package metrics provides Prometheus metrics for the tiered cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements types.Metrics with Prometheus counters.
type Prometheus struct {
	Hits         prometheus.Counter
	Misses       prometheus.Counter
	RemoteHits   prometheus.Counter
	RemoteMisses prometheus.Counter
	Evictions    prometheus.Counter
	Expirations  prometheus.Counter

	// Replications is labelled by status: "ok" or "failed".
	Replications *prometheus.CounterVec
}

// NewPrometheus registers the cache counters on reg under namespace.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	f := promauto.With(reg)

	return &Prometheus{
		Hits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_hits_total",
			Help:      "Total number of reads served by the local store",
		}),
		Misses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_misses_total",
			Help:      "Total number of reads the local store could not serve",
		}),
		RemoteHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_hits_total",
			Help:      "Total number of local misses answered by the remote tier",
		}),
		RemoteMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_misses_total",
			Help:      "Total number of remote lookups that missed or failed",
		}),
		Evictions: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evictions_total",
			Help:      "Total number of entries removed by pruning",
		}),
		Expirations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expirations_total",
			Help:      "Total number of entries deleted on read after their TTL",
		}),
		Replications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replications_total",
			Help:      "Background writes to the remote tier by status",
		}, []string{"status"}),
	}
}

func (p *Prometheus) Hit()        { p.Hits.Inc() }
func (p *Prometheus) Miss()       { p.Misses.Inc() }
func (p *Prometheus) RemoteHit()  { p.RemoteHits.Inc() }
func (p *Prometheus) RemoteMiss() { p.RemoteMisses.Inc() }
func (p *Prometheus) Eviction()   { p.Evictions.Inc() }
func (p *Prometheus) Expire()     { p.Expirations.Inc() }

func (p *Prometheus) Replicate(ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	p.Replications.WithLabelValues(status).Inc()
}

// RegisterSize exposes the current local store size as a gauge read from size on every scrape.
func RegisterSize(reg prometheus.Registerer, namespace string, size func() int) prometheus.GaugeFunc {
	return promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "local_entries",
		Help:      "Current number of entries in the local store",
	}, func() float64 { return float64(size()) })
}
