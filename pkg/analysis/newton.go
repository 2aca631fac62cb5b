package analysis

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/internal/logging"
	"github.com/edp1096/toy-powerflow/pkg/matrix"
	"github.com/edp1096/toy-powerflow/pkg/network"
)

// Solve outcomes reported to a MetricsRecorder.
const (
	OutcomeConverged = "converged"
	OutcomeDiverged  = "nonconvergence"
	OutcomeSingular  = "singular"
	OutcomeInvalid   = "invalid"
)

// MetricsRecorder receives one observation per Solve call.
type MetricsRecorder interface {
	ObserveSolve(outcome string, iterations int, finalError float64, elapsed time.Duration)
}

type Result struct {
	X          []float64
	Iterations int
	Error      float64
	History    []float64 // max |Δx| per iteration
}

type solverOptions struct {
	formulation Formulation
	backend     matrix.Backend
	log         logging.Logger
	metrics     MetricsRecorder
}

type Option func(*solverOptions)

func WithFormulation(f Formulation) Option {
	return func(o *solverOptions) { o.formulation = f }
}

func WithBackend(b matrix.Backend) Option {
	return func(o *solverOptions) { o.backend = b }
}

func WithLogger(l logging.Logger) Option {
	return func(o *solverOptions) { o.log = logging.OrNoop(l) }
}

func WithMetrics(m MetricsRecorder) Option {
	return func(o *solverOptions) { o.metrics = m }
}

func newSolverOptions(opts []Option) *solverOptions {
	o := &solverOptions{
		formulation: FullState,
		backend:     matrix.Sparse,
		log:         logging.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Solve runs Newton-Raphson on model from x0 and, on success, writes the
// solved quantities back into the buses.
func Solve(model *network.SystemModel, maxIterations int, tolerance float64, x0 []float64, opts ...Option) (*Result, error) {
	o := newSolverOptions(opts)
	start := time.Now()

	res, err := solve(model, maxIterations, tolerance, x0, o)

	outcome := OutcomeConverged
	switch {
	case err == nil:
	case errors.Is(err, ErrNonConvergence):
		outcome = OutcomeDiverged
	case errors.Is(err, ErrSingularJacobian):
		outcome = OutcomeSingular
	default:
		outcome = OutcomeInvalid
	}
	if o.metrics != nil {
		var iters int
		var final float64
		if res != nil {
			iters, final = res.Iterations, res.Error
		}
		var ce *ConvergenceError
		if errors.As(err, &ce) {
			iters, final = ce.Iterations, ce.LastError
		}
		o.metrics.ObserveSolve(outcome, iters, final, time.Since(start))
	}
	return res, err
}

func solve(model *network.SystemModel, maxIterations int, tolerance float64, x0 []float64, o *solverOptions) (*Result, error) {
	if maxIterations < 1 {
		return nil, fmt.Errorf("%w: max iterations %d", network.ErrInvalidParameter, maxIterations)
	}
	if !(tolerance > 0) || math.IsInf(tolerance, 0) {
		return nil, fmt.Errorf("%w: tolerance %g", network.ErrInvalidParameter, tolerance)
	}

	gen, err := NewGenerator(model, o.formulation)
	if err != nil {
		return nil, err
	}
	if err := gen.checkState(x0); err != nil {
		return nil, err
	}
	for i, v := range x0 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: x0[%d] is not finite", ErrInitialGuess, i)
		}
	}

	log := o.log.With(logging.String("formulation", gen.Layout().Formulation().String()), logging.Any("backend", o.backend))

	size := gen.layout.Size()
	if size == 0 {
		// Every bus value is known, so there is nothing to iterate.
		if err := writeBack(model, gen, nil); err != nil {
			return nil, err
		}
		log.Info("newton-raphson has no unknowns")
		return &Result{X: []float64{}}, nil
	}

	sys, err := matrix.New(o.backend, size)
	if err != nil {
		return nil, err
	}
	defer sys.Destroy()

	x := append([]float64(nil), x0...)
	var history []float64
	eqs := gen.equations()

	for iter := 1; iter <= maxIterations; iter++ {
		st := gen.state(x)

		sys.Clear()
		for r, eq := range eqs {
			sys.AddRHS(r+1, -eq.residual(st))
		}
		gen.stampJacobian(st, func(r, k int, v float64) { sys.AddElement(r+1, k+1, v) })

		if err := sys.Solve(); err != nil {
			if errors.Is(err, matrix.ErrSingular) {
				log.Warn("jacobian is singular", logging.Int("iteration", iter), logging.Err(err))
				return nil, fmt.Errorf("%w: iteration %d: %v", ErrSingularJacobian, iter, err)
			}
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}

		dx := sys.Solution()
		var maxStep float64
		finite := true
		for k := 0; k < size; k++ {
			x[k] += dx[k+1]
			if a := math.Abs(dx[k+1]); a > maxStep {
				maxStep = a
			}
			if math.IsNaN(x[k]) || math.IsInf(x[k], 0) {
				finite = false
			}
		}
		history = append(history, maxStep)
		log.Debug("newton-raphson iteration", logging.Int("iteration", iter), logging.Float("max_step", maxStep))

		if !finite {
			log.Warn("newton-raphson diverged", logging.Int("iteration", iter))
			return nil, &ConvergenceError{Iterations: iter, LastError: maxStep, X: x, Diverged: true}
		}
		if maxStep < tolerance {
			if err := writeBack(model, gen, x); err != nil {
				return nil, err
			}
			log.Info("newton-raphson converged", logging.Int("iterations", iter), logging.Float("error", maxStep))
			return &Result{X: x, Iterations: iter, Error: maxStep, History: history}, nil
		}
	}

	last := history[len(history)-1]
	log.Warn("newton-raphson reached iteration limit", logging.Int("iterations", maxIterations), logging.Float("error", last))
	return nil, &ConvergenceError{Iterations: maxIterations, LastError: last, X: x}
}

// writeBack stores the solved unknowns of every bus. PQ buses receive
// magnitude and phase, PV buses phase and reactive generation, the slack
// bus active and reactive generation.
func writeBack(model *network.SystemModel, gen *Generator, x []float64) error {
	st := gen.state(x)
	for i := 0; i < gen.n; i++ {
		bus, err := model.Bus(i + 1)
		if err != nil {
			return err
		}
		switch gen.types[i] {
		case network.PQ:
			bus.SetVoltageMagnitude(st.v[i])
			bus.SetVoltagePhase(st.theta[i])
		case network.PV:
			bus.SetVoltagePhase(st.theta[i])
			bus.SetReactivePower(gen.injection(st, i, true))
		case network.Slack:
			bus.SetActivePower(gen.injection(st, i, false))
			bus.SetReactivePower(gen.injection(st, i, true))
		}
	}
	return nil
}

// FlatStart builds the customary initial guess: every phase at the slack
// phase, every magnitude at its known value or 1.0.
func FlatStart(model *network.SystemModel, f Formulation) ([]float64, error) {
	slack, err := model.SlackBus()
	if err != nil {
		return nil, err
	}
	sb, err := model.Bus(slack)
	if err != nil {
		return nil, err
	}
	phase, err := sb.Require(network.VoltagePhase)
	if err != nil {
		return nil, err
	}
	layout, err := NewLayout(busTypes(model), f)
	if err != nil {
		return nil, err
	}

	x := make([]float64, layout.Size())
	for k := range x {
		id, magnitude, _ := layout.Variable(k)
		if !magnitude {
			x[k] = phase
			continue
		}
		x[k] = consts.FlatMagnitude
		bus, err := model.Bus(id)
		if err != nil {
			return nil, err
		}
		if bus.Type() != network.PQ {
			if v, ok := bus.VoltageMagnitude(); ok {
				x[k] = v
			}
		}
	}
	return x, nil
}
