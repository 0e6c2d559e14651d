package application

import (
	"time"

	"metalspot-service/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_cache_requests_total",
		Help: "Spot cache lookups by result status",
	}, []string{"status"})

	RefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spot_refresh_total",
		Help: "Coordinated refresh attempts by outcome",
	}, []string{"outcome"})

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "spot_refresh_duration_seconds",
		Help:    "Wall time of coordinated refreshes that reached the upstream",
		Buckets: prometheus.DefBuckets,
	})

	UpstreamFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spot_upstream_fetch_duration_seconds",
		Help:    "Per-symbol upstream fetch latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"symbol", "outcome"})

	SnapshotAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spot_snapshot_age_seconds",
		Help: "Age of the snapshot served by the last lookup",
	})
)

func observeFetch(sym domain.Symbol, outcome string, start time.Time) {
	UpstreamFetchDuration.WithLabelValues(string(sym), outcome).Observe(time.Since(start).Seconds())
}
