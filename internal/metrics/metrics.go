// Package metrics exposes the scene controller's Prometheus metrics
// and the gopsutil-based process CPU/RSS gauges.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"
)

var (
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_controller_messages_total",
		Help: "Ingest messages processed, by kind (camera, sensor, child).",
	}, []string{"kind"})

	DroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_controller_dropped_total",
		Help: "Messages dropped without producing a track update, by reason and category.",
	}, []string{"reason", "category"})

	ObjectCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "scene_controller_object_count",
		Help: "Current tracked object count, by scene and category.",
	}, []string{"scene", "category"})

	HandlerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_controller_handler_latency_seconds",
		Help:    "Wall time spent processing an ingest message end to end.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	ProcessCPUPercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scene_controller_process_cpu_percent",
		Help: "Controller process CPU utilization percent.",
	})

	ProcessRSSBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scene_controller_process_rss_bytes",
		Help: "Controller process resident set size in bytes.",
	})
)

// Serve starts the /metrics HTTP handler. Grounded on the same
// "run a small http.Server in its own goroutine" shape the teacher
// uses for its status loop, generalized to Prometheus's handler.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[metrics] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[metrics] server error: %v", err)
	}
}

// RunProcessLoop samples this process's CPU/RSS on the given interval
// until ctx is cancelled.
func RunProcessLoop(ctx context.Context, interval time.Duration) {
	proc, err := process.NewProcess(int32(pid()))
	if err != nil {
		log.Printf("[metrics] process stats unavailable: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pct, err := proc.CPUPercent(); err == nil {
				ProcessCPUPercent.Set(pct)
			}
			if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
				ProcessRSSBytes.Set(float64(mem.RSS))
			}
		}
	}
}
