// Package metrics exposes dispatcher counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Event outcomes.
const (
	EventIgnored     = "ignored"
	EventProvisioned = "provisioned"
	EventNoPrefix    = "no_prefix"
	EventMiss        = "lookup_miss"
	EventDispatched  = "dispatched"
	EventFailed      = "provision_failed"
)

// Command results.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
	ResultPanicked = "panicked"
)

// Metrics groups the bot counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Events      *prometheus.CounterVec
	Commands    *prometheus.CounterVec
	Provisioned *prometheus.CounterVec
	Waits       *prometheus.CounterVec
}

// New registers the counters with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration against the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Events: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maika_events_total",
			Help: "Inbound message events by dispatch outcome.",
		}, []string{"outcome"}),
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maika_commands_total",
			Help: "Command executions by command and result.",
		}, []string{"command", "result"}),
		Provisioned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maika_provisioned_total",
			Help: "Records created lazily on first contact.",
		}, []string{"kind"}),
		Waits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "maika_collector_waits_total",
			Help: "Collector waits by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Event(outcome string) {
	if m != nil {
		m.Events.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Command(name, result string) {
	if m != nil {
		m.Commands.WithLabelValues(name, result).Inc()
	}
}

func (m *Metrics) Provision(kind string) {
	if m != nil {
		m.Provisioned.WithLabelValues(kind).Inc()
	}
}

// CollectorObserver is passed to collector.WithObserver.
func (m *Metrics) CollectorObserver() func(string) {
	return func(result string) {
		if m != nil {
			m.Waits.WithLabelValues(result).Inc()
		}
	}
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK\n"))
	})

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("serving metrics")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
