package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/FranksOps/reachout/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reachout_search_queries_total",
			Help: "Total number of search queries issued during discovery",
		},
		[]string{"kind", "outcome"},
	)

	ProfilesDiscovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reachout_profiles_discovered_total",
			Help: "Total number of unique profile handles discovered",
		},
	)

	OutreachTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reachout_outreach_total",
			Help: "Total number of processed profiles by terminal action and status",
		},
		[]string{"action", "status"},
	)

	OutreachDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reachout_outreach_duration_seconds",
			Help:    "Duration of per-profile pipeline runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
	)

	DirectoryRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reachout_directory_requests_total",
			Help: "Total number of directory API calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordSearchQuery updates the search counters for one executed query.
// kind is "targeted" or "broadened".
func RecordSearchQuery(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SearchQueriesTotal.WithLabelValues(kind, outcome).Inc()
}

// RecordDirectoryCall updates the API counters for one directory operation.
func RecordDirectoryCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	DirectoryRequestsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordOutreach updates the metrics given a terminal OutreachResult.
func RecordOutreach(res *storage.OutreachResult) {
	if res == nil {
		return
	}

	OutreachTotal.WithLabelValues(string(res.Action), string(res.Status)).Inc()
	OutreachDuration.Observe(res.Duration.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		// Suppress the error from intentional shutdown
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("metrics server failed: %v\n", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
