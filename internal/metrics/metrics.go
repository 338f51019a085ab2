// Package metrics counts voice engine activity for Prometheus.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beespeak/internal/domain"
	"beespeak/internal/ports"
)

// Metrics records counters on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	utterances  prometheus.Counter
	commands    *prometheus.CounterVec
	flags       *prometheus.CounterVec
	inspections prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		utterances: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beespeak_utterances_total",
			Help: "Completed utterances processed by the voice engine.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beespeak_voice_commands_total",
			Help: "Recognized voice commands by command ID.",
		}, []string{"command"}),
		flags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "beespeak_flags_detected_total",
			Help: "Inspection flags detected in dictation by flag name.",
		}, []string{"flag"}),
		inspections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "beespeak_inspections_saved_total",
			Help: "Inspections persisted.",
		}),
	}
	m.registry.MustRegister(m.utterances, m.commands, m.flags, m.inspections)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) UtteranceProcessed() {
	m.utterances.Inc()
}

func (m *Metrics) CommandRecognized(command domain.CommandID) {
	m.commands.WithLabelValues(string(command)).Inc()
}

func (m *Metrics) FlagDetected(field string) {
	m.flags.WithLabelValues(field).Inc()
}

func (m *Metrics) InspectionSaved() {
	m.inspections.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var _ ports.MetricsRecorder = (*Metrics)(nil)
