// Package metrics exposes Prometheus instrumentation for the pool and
// reindex pipeline, served on a dedicated listener separate from the
// dispatcher's protocol-sniffing socket.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/standardbeagle/searchd/internal/logging"
)

var log = logging.For("metrics")

var (
	// PoolBusyWorkers tracks the pool's current busy count.
	PoolBusyWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "searchd_pool_busy_workers",
		Help: "Number of worker goroutines currently executing a task.",
	})

	// PoolIdleWorkers tracks the pool's IdleCount, which never reports
	// less than 1 even when every worker is busy.
	PoolIdleWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "searchd_pool_idle_workers",
		Help: "Number of worker goroutines currently idle, reported as at least 1.",
	})

	// PoolQueueDepth tracks the number of tasks waiting in the pool queue.
	PoolQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "searchd_pool_queue_depth",
		Help: "Number of tasks currently queued, across all priorities.",
	})

	// ReindexFilesDiscovered counts files newly discovered by reindex rounds.
	ReindexFilesDiscovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "searchd_reindex_files_discovered_total",
		Help: "Total number of files discovered and scheduled for loading across all reindex rounds.",
	})

	// SearchLatency observes end-to-end Search call duration.
	SearchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "searchd_search_latency_seconds",
		Help:    "Latency of InvertedIndex.Search calls.",
		Buckets: prometheus.DefBuckets,
	})
)

// PoolGaugeSource is the subset of pool.Pool metrics reads from.
type PoolGaugeSource interface {
	BusyCount() int
	IdleCount() int
	QueueLen() int
}

// PollGauges starts a background goroutine that samples src's gauges
// every interval until ctx is cancelled.
func PollGauges(ctx context.Context, src PoolGaugeSource, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				PoolBusyWorkers.Set(float64(src.BusyCount()))
				PoolIdleWorkers.Set(float64(src.IdleCount()))
				PoolQueueDepth.Set(float64(src.QueueLen()))
			}
		}
	}()
}

// Server serves the /metrics endpoint on its own listener.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics HTTP server bound to addr (not yet
// listening; call Start).
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Start begins serving in the background. Bind failures are logged,
// not fatal; metrics are observability, not a core operation.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped: %v", err)
		}
	}()
}

// Stop gracefully shuts the metrics server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
