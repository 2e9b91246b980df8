// Package metrics exposes supervisor activity as Prometheus metrics.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/radio-watchdog/internal/app/failover"
)

const namespace = "radio_watchdog"

// Metrics holds the watchdog collectors.
type Metrics struct {
	registry *prometheus.Registry

	mode            prometheus.Gauge
	online          prometheus.Gauge
	probesTotal     *prometheus.CounterVec
	switchesTotal   *prometheus.CounterVec
	restartsTotal   *prometheus.CounterVec
	launchFailures  *prometheus.CounterVec
	backupEmpty     prometheus.Counter
	lastTransitionS prometheus.Gauge
}

// New creates and registers the watchdog metrics on a private registry.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.mode = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "mode",
		Help:      "Current playback mode (0 streaming, 1 backup)",
	})
	m.online = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "online",
		Help:      "Result of the most recent connectivity probe (1 up, 0 down)",
	})
	m.probesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "probes_total",
		Help:      "Total number of connectivity probes",
	}, []string{"result"}) // result: up, down
	m.switchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mode_switches_total",
		Help:      "Total number of mode switches",
	}, []string{"to"})
	m.restartsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "player_restarts_total",
		Help:      "Total number of player restarts after the player was found not running",
	}, []string{"mode"})
	m.launchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "launch_failures_total",
		Help:      "Total number of player launch failures",
	}, []string{"mode"})
	m.backupEmpty = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backup_empty_total",
		Help:      "Total number of backup starts with no files available",
	})
	m.lastTransitionS = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_mode_switch_timestamp_seconds",
		Help:      "Unix time of the most recent mode switch",
	})

	for _, c := range []prometheus.Collector{
		m.mode, m.online, m.probesTotal, m.switchesTotal,
		m.restartsTotal, m.launchFailures, m.backupEmpty, m.lastTransitionS,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, errors.Wrap(err, "failed to register collector")
		}
	}

	return m, nil
}

// Registry returns the registry holding the watchdog collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Observe updates the metrics for a controller event.
func (m *Metrics) Observe(e failover.Event) {
	switch e.Type {
	case failover.EventProbe:
		if e.Online {
			m.online.Set(1)
			m.probesTotal.WithLabelValues("up").Inc()
		} else {
			m.online.Set(0)
			m.probesTotal.WithLabelValues("down").Inc()
		}
		m.mode.Set(float64(e.Mode))
	case failover.EventModeChanged:
		m.mode.Set(float64(e.Mode))
		m.switchesTotal.WithLabelValues(e.Mode.String()).Inc()
		m.lastTransitionS.Set(float64(e.At.Unix()))
	case failover.EventPlayerRestarted:
		m.restartsTotal.WithLabelValues(e.Mode.String()).Inc()
	case failover.EventLaunchFailed:
		m.launchFailures.WithLabelValues(e.Mode.String()).Inc()
	case failover.EventBackupEmpty:
		m.backupEmpty.Inc()
	}
}

// Server serves /metrics until Shutdown is called.
type Server struct {
	srv *http.Server
}

// Serve starts an HTTP server for the registry on addr in the background.
func (m *Metrics) Serve(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zlog.Info().Msgf("Serving metrics: addr=%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Msgf("Metrics server error: %v", err)
		}
	}()
	return &Server{srv: srv}
}

// Shutdown stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
