// Package metrics exposes the forwarder's counters, response-time
// histogram, and a recent-latency ring for the dashboard and /metrics.
package metrics

import (
	"container/ring"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds every metric this forwarder reports, plus a fixed-size
// ring of recent response latencies for the dashboard's sparkline.
type Registry struct {
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
	BlockedRequests prometheus.Counter
	ResponseTime    prometheus.Histogram

	recentMu sync.Mutex
	recent   *ring.Ring
}

// recentLatencySlots is the fixed capacity of the recent-latency ring the
// dashboard's sparkline reads from.
const recentLatencySlots = 100

// NewRegistry constructs and registers every metric against reg. Passing
// prometheus.NewRegistry() keeps metrics isolated per-process, matching the
// teacher's pattern of package-level registration without relying on the
// global default registry.
func NewRegistry(reg prometheus.Registerer) *Registry {
	m := &Registry{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdns_forwarder_cache_hits_total",
			Help: "Total DNS queries answered from cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdns_forwarder_cache_misses_total",
			Help: "Total DNS queries that missed the cache.",
		}),
		BlockedRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rdns_forwarder_blocked_requests_total",
			Help: "Total DNS queries answered with a sinkhole response.",
		}),
		ResponseTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rdns_forwarder_response_time_seconds",
			Help:    "End-to-end time to answer a DNS query.",
			Buckets: prometheus.DefBuckets,
		}),
		recent: ring.New(recentLatencySlots),
	}
	reg.MustRegister(m.CacheHits, m.CacheMisses, m.BlockedRequests, m.ResponseTime)
	return m
}

// ObserveLatency records d both in the response-time histogram and in the
// recent-latency ring the dashboard reads from.
func (m *Registry) ObserveLatency(d time.Duration) {
	m.ResponseTime.Observe(d.Seconds())

	m.recentMu.Lock()
	m.recent.Value = d
	m.recent = m.recent.Next()
	m.recentMu.Unlock()
}

// RecentLatencies returns up to recentLatencySlots most recently observed
// latencies, oldest first.
func (m *Registry) RecentLatencies() []time.Duration {
	m.recentMu.Lock()
	defer m.recentMu.Unlock()

	out := make([]time.Duration, 0, recentLatencySlots)
	m.recent.Do(func(v any) {
		if v == nil {
			return
		}
		out = append(out, v.(time.Duration))
	})
	return out
}
