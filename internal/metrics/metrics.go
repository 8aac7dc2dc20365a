package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors for simulation runs
type Registry struct {
	reg *prometheus.Registry

	TrialsSimulated prometheus.Counter
	DegenerateDraws prometheus.Counter
	Runs            *prometheus.CounterVec
	RunDuration     *prometheus.HistogramVec
	LastBestSharpe  *prometheus.GaugeVec
}

// NewRegistry creates a registry with every portopt collector registered
func NewRegistry() *Registry {
	m := &Registry{
		reg: prometheus.NewRegistry(),

		TrialsSimulated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portopt_trials_simulated_total",
				Help: "Total number of random portfolios scored",
			},
		),

		DegenerateDraws: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portopt_degenerate_redraws_total",
				Help: "Weight draws replaced because their raw sum was numerically zero",
			},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portopt_runs_total",
				Help: "Simulation runs by frequency and outcome",
			},
			[]string{"frequency", "outcome"},
		),

		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portopt_run_duration_seconds",
				Help:    "Wall time of a full simulate, rank and validate run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"frequency"},
		),

		LastBestSharpe: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "portopt_last_best_sharpe",
				Help: "Best in-sample Sharpe ratio of the most recent successful run",
			},
			[]string{"frequency"},
		),
	}

	m.reg.MustRegister(
		m.TrialsSimulated,
		m.DegenerateDraws,
		m.Runs,
		m.RunDuration,
		m.LastBestSharpe,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// RecordRun records a completed run; err decides the outcome label.
// A nil registry records nothing.
func (m *Registry) RecordRun(frequency string, trials, redraws int, bestSharpe float64, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Runs.WithLabelValues(frequency, outcome).Inc()
	m.RunDuration.WithLabelValues(frequency).Observe(elapsed.Seconds())
	if err != nil {
		return
	}
	m.TrialsSimulated.Add(float64(trials))
	m.DegenerateDraws.Add(float64(redraws))
	m.LastBestSharpe.WithLabelValues(frequency).Set(bestSharpe)
}
