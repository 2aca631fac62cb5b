package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SolverCollector bundles Prometheus metrics describing power-flow solves.
// It satisfies analysis.MetricsRecorder.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	Solves     *prometheus.CounterVec
	Iterations prometheus.Histogram
	Durations  prometheus.Histogram
	FinalError prometheus.Gauge
}

// NewSolverCollector registers solver metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	solves, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "powerflow_solves_total",
		Help: "Total number of Newton-Raphson solves, labeled by outcome.",
	}, []string{"outcome"}), "powerflow_solves_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "powerflow_iterations",
		Help:    "Newton-Raphson iterations per solve.",
		Buckets: []float64{1, 2, 3, 4, 5, 7, 10, 15, 20, 30, 50, 100},
	}), "powerflow_iterations")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "powerflow_solve_duration_seconds",
		Help:    "Wall time of a solve in seconds.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}), "powerflow_solve_duration_seconds")
	if err != nil {
		return nil, err
	}

	finalError, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "powerflow_final_error",
		Help: "Largest state update of the last iteration of the most recent solve.",
	}), "powerflow_final_error")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:   gatherer,
		Solves:     solves,
		Iterations: iterations,
		Durations:  durations,
		FinalError: finalError,
	}, nil
}

// ObserveSolve records one solve. Iteration counts are only observed when
// at least one iteration ran.
func (c *SolverCollector) ObserveSolve(outcome string, iterations int, finalError float64, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.Solves.WithLabelValues(outcome).Inc()
	c.Durations.Observe(elapsed.Seconds())
	if iterations > 0 {
		c.Iterations.Observe(float64(iterations))
		c.FinalError.Set(finalError)
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SolverCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
