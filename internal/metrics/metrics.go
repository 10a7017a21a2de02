package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runbox_compile_cache_lookups_total",
			Help: "Compile cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss"
	)

	CompilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runbox_compiles_total",
			Help: "Compile processes launched, by terminal outcome",
		},
		[]string{"compiler", "outcome"},
	)

	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "runbox_executions_total",
			Help: "Total number of program executions",
		},
		[]string{"compiler", "status"},
	)

	PhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runbox_phase_duration_ms",
			Help:    "Wall time per phase in milliseconds",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"compiler", "phase"}, // phase: "compile", "run"
	)

	MemoryUsage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "runbox_memory_usage",
			Help:    "Peak resident memory per execution as reported by the time wrapper",
			Buckets: []float64{1024, 4096, 16384, 65536, 131072, 262144, 1048576},
		},
		[]string{"compiler"},
	)

	RateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "runbox_rate_limit_hits_total",
			Help: "Total number of requests rejected by rate limiter",
		},
	)
)
