// Package metrics exposes Prometheus collectors for the live loop.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rustyeddy/prophunter/engine"
	"github.com/rustyeddy/prophunter/position"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	StepsTotal      prometheus.Counter
	StepErrorsTotal prometheus.Counter
	StepDuration    prometheus.Histogram
	EventsTotal     *prometheus.CounterVec // labels: kind
	TradesTotal     *prometheus.CounterVec // labels: result=win|loss
	RealizedPnL     prometheus.Gauge
	Balance         prometheus.Gauge
	PositionOpen    prometheus.Gauge // 0=flat, 1=long, -1=short
	HaltedToday     prometheus.Gauge
	LastStep        prometheus.Gauge
}

// New creates the collectors on a fresh registry that also carries the Go
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		StepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prophunter_steps_total",
			Help: "Total evaluation steps run",
		}),
		StepErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "prophunter_step_errors_total",
			Help: "Steps that failed (feed, data integrity, persistence)",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "prophunter_step_duration_seconds",
			Help:    "Latency of one live step including fetch and persistence",
			Buckets: prometheus.DefBuckets,
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prophunter_events_total",
			Help: "Engine events emitted (by kind)",
		}, []string{"kind"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "prophunter_trades_total",
			Help: "Closed trades (by result)",
		}, []string{"result"}),
		RealizedPnL: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prophunter_realized_pnl",
			Help: "Cumulative realized P/L of trades closed by this process",
		}),
		Balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prophunter_balance",
			Help: "Account balance after the last step",
		}),
		PositionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prophunter_position",
			Help: "Open position side: 1 long, -1 short, 0 flat",
		}),
		HaltedToday: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prophunter_halted_today",
			Help: "1 when the daily loss limit stopped new entries",
		}),
		LastStep: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "prophunter_last_step_timestamp_seconds",
			Help: "Unix time of the last successful step",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StepsTotal,
		m.StepErrorsTotal,
		m.StepDuration,
		m.EventsTotal,
		m.TradesTotal,
		m.RealizedPnL,
		m.Balance,
		m.PositionOpen,
		m.HaltedToday,
		m.LastStep,
	)
	return m
}

// ObserveStep records one step's latency and outcome.
func (m *Metrics) ObserveStep(d time.Duration, err error) {
	m.StepsTotal.Inc()
	m.StepDuration.Observe(d.Seconds())
	if err != nil {
		m.StepErrorsTotal.Inc()
	}
}

// ObserveResult records events, trades and the state after a step.
func (m *Metrics) ObserveResult(r engine.Result, now time.Time) {
	for _, e := range r.Events {
		m.EventsTotal.WithLabelValues(string(e.Kind)).Inc()
	}
	for _, t := range r.Trades {
		m.ObserveTrade(t)
	}
	m.ObserveState(r.State)
	m.LastStep.Set(float64(now.Unix()))
}

func (m *Metrics) ObserveTrade(t position.TradeRecord) {
	result := "loss"
	if t.Win() {
		result = "win"
	}
	m.TradesTotal.WithLabelValues(result).Inc()
	m.RealizedPnL.Add(t.PnL)
}

func (m *Metrics) ObserveState(s engine.State) {
	m.Balance.Set(s.Balance)
	if s.Position.IsOpen() {
		m.PositionOpen.Set(s.Position.Direction.Sign())
	} else {
		m.PositionOpen.Set(0)
	}
	if s.Risk.HaltedToday {
		m.HaltedToday.Set(1)
	} else {
		m.HaltedToday.Set(0)
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Server exposes /metrics and /healthz.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

func NewServer(addr string, m *Metrics, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok\n"))
	})
	return &Server{
		srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		log: log,
	}
}

// Start serves in a goroutine until Stop.
func (s *Server) Start() {
	go func() {
		s.log.Info("metrics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server", "err", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
