package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// Solves counts solve requests by phase and outcome.
	Solves = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "solves_total", Help: "Solve attempts by phase and outcome."},
		[]string{"phase", "outcome"},
	)
	// SolveDuration records end-to-end solve durations in seconds.
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "solve_duration_seconds",
			Help:    "End-to-end solve duration in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45, 60},
		},
	)

	// MatrixRequests counts backend matrix requests by provider and status.
	MatrixRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "matrix_requests_total", Help: "Matrix backend requests by provider and status."},
		[]string{"provider", "status"},
	)
	// MatrixChunkRequests counts individual chunk-pair sub-requests.
	MatrixChunkRequests = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "matrix_chunk_requests_total", Help: "Chunk-pair sub-requests issued to matrix backends."},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors on the service registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(Solves)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(MatrixRequests)
		Registry.MustRegister(MatrixChunkRequests)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
