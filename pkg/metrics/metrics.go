// Package metrics exposes run counters over HTTP for prometheus.
package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/status"
)

// 📊 Metrics holds the counters of one run
type Metrics struct {
	registry *prometheus.Registry
	files    *prometheus.CounterVec
	stats    *prometheus.CounterVec
	reports  prometheus.Counter
	batches  prometheus.Counter
	duration prometheus.Histogram
}

// New creates the counters on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evcodeshift",
			Name:      "files_total",
			Help:      "Files processed, by status.",
		}, []string{"status"}),
		stats: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "evcodeshift",
			Name:      "dry_stats_total",
			Help:      "Quantities counted by transforms during dry runs.",
		}, []string{"name"}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evcodeshift",
			Name:      "reports_total",
			Help:      "Messages reported by transforms.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "evcodeshift",
			Name:      "batches_total",
			Help:      "Batches completed by workers.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "evcodeshift",
			Name:      "run_duration_seconds",
			Help:      "Wall time of whole runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	m.registry.MustRegister(m.files, m.stats, m.reports, m.batches, m.duration)
	return m
}

// Observe counts one worker event.
func (m *Metrics) Observe(ev status.Event) {
	switch ev.Action {
	case status.ActionStatus:
		m.files.WithLabelValues(ev.Status.String()).Inc()
	case status.ActionUpdate:
		m.stats.WithLabelValues(ev.Name).Add(float64(ev.Quantity))
	case status.ActionReport:
		m.reports.Inc()
	case status.ActionFree:
		m.batches.Inc()
	}
}

// ObserveRun records the duration of a finished run.
func (m *Metrics) ObserveRun(elapsed time.Duration) {
	m.duration.Observe(elapsed.Seconds())
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// 🌐 Serve exposes /metrics on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Errorf("listening on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zerolog.Ctx(ctx).Debug().Str("addr", ln.Addr().String()).Msg("serving metrics")
	return ln.Addr(), nil
}
