package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pickup-route-service/internal/api/handlers"
	"pickup-route-service/internal/config"
	"pickup-route-service/internal/metrics"
	"pickup-route-service/internal/services"
)

// NewRouter wires the HTTP surface: planning, liveness, metrics.
func NewRouter(planner *services.Planner, matrix config.MatrixConfig) http.Handler {
	metrics.RegisterDefault()

	solve := handlers.NewSolve(planner)
	health := handlers.NewHealth(matrix.Provider, matrix.Cache.Kind)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", health.Handle)
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/solve", solve.Handle)

	return requestIDMiddleware(loggingMiddleware(mux))
}
