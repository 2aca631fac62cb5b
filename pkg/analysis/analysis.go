package analysis

import (
	"fmt"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/pkg/network"
)

type Analysis interface {
	Setup(model *network.SystemModel) error
	Execute() error
	GetResults() map[string][]float64
}

type BaseAnalysis struct {
	Model       *network.SystemModel
	results     map[string][]float64
	convergence struct {
		maxIter   int
		tolerance float64
	}
}

func NewBaseAnalysis() *BaseAnalysis {
	ba := &BaseAnalysis{results: make(map[string][]float64)}

	ba.convergence.maxIter = consts.DefaultMaxIterations
	ba.convergence.tolerance = consts.DefaultTolerance

	return ba
}

// StoreIterationResult appends one iteration to the ITER/ERR series.
func (a *BaseAnalysis) StoreIterationResult(iter int, maxStep float64) {
	a.results["ITER"] = append(a.results["ITER"], float64(iter))
	a.results["ERR"] = append(a.results["ERR"], maxStep)
}

// StoreBusResults records V(i), TH(i), P(i) and Q(i) for every bus. P and Q
// are net injections.
func (a *BaseAnalysis) StoreBusResults() error {
	injections, err := BusInjections(a.Model)
	if err != nil {
		return err
	}
	buses := a.Model.Buses()
	for i := range buses {
		v, _ := buses[i].VoltageMagnitude()
		th, _ := buses[i].VoltagePhase()
		id := i + 1
		a.results[fmt.Sprintf("V(%d)", id)] = []float64{v}
		a.results[fmt.Sprintf("TH(%d)", id)] = []float64{th}
		a.results[fmt.Sprintf("P(%d)", id)] = []float64{real(injections[i])}
		a.results[fmt.Sprintf("Q(%d)", id)] = []float64{imag(injections[i])}
	}
	return nil
}

func (a *BaseAnalysis) GetResults() map[string][]float64 {
	return a.results
}

// NewtonRaphson runs Solve from a flat start as an Analysis.
type NewtonRaphson struct {
	BaseAnalysis
	opts   []Option
	x0     []float64
	result *Result
}

func NewNewtonRaphson(maxIterations int, tolerance float64, opts ...Option) *NewtonRaphson {
	nr := &NewtonRaphson{
		BaseAnalysis: *NewBaseAnalysis(),
		opts:         opts,
	}
	if maxIterations > 0 {
		nr.convergence.maxIter = maxIterations
	}
	if tolerance > 0 {
		nr.convergence.tolerance = tolerance
	}
	return nr
}

func (nr *NewtonRaphson) Setup(model *network.SystemModel) error {
	o := newSolverOptions(nr.opts)
	x0, err := FlatStart(model, o.formulation)
	if err != nil {
		return fmt.Errorf("flat start: %w", err)
	}
	nr.Model = model
	nr.x0 = x0
	return nil
}

func (nr *NewtonRaphson) Execute() error {
	if nr.Model == nil {
		return fmt.Errorf("%w: analysis not set up", network.ErrInvalidParameter)
	}
	nr.results = make(map[string][]float64)
	res, err := Solve(nr.Model, nr.convergence.maxIter, nr.convergence.tolerance, nr.x0, nr.opts...)
	if err != nil {
		return err
	}
	nr.result = res

	for i, e := range res.History {
		nr.StoreIterationResult(i+1, e)
	}
	return nr.StoreBusResults()
}

// Result returns the last successful solve, or nil.
func (nr *NewtonRaphson) Result() *Result { return nr.result }

var _ Analysis = (*NewtonRaphson)(nil)
