package matrix

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// DenseSystem solves with a partial-pivoting LU from gonum. Factorizations
// whose condition number exceeds mat.ConditionTolerance count as singular.
type DenseSystem struct {
	entries
	solution []float64
	cond     float64
}

func NewDenseSystem(size int) (*DenseSystem, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrOutOfBounds, size)
	}
	return &DenseSystem{entries: newEntries(size)}, nil
}

func (d *DenseSystem) Size() int { return d.size }

func (d *DenseSystem) AddElement(i, j int, value float64) { d.add(i, j, value) }

func (d *DenseSystem) AddRHS(i int, value float64) { d.addRHS(i, value) }

func (d *DenseSystem) Solve() error {
	d.solution = nil
	d.cond = 0
	if err := d.check(); err != nil {
		return err
	}

	a := mat.NewDense(d.size, d.size, nil)
	for _, key := range d.keys() {
		a.Set(key[0]-1, key[1]-1, d.values[key])
	}
	b := mat.NewVecDense(d.size, append([]float64(nil), d.rhs[1:]...))

	var lu mat.LU
	lu.Factorize(a)
	d.cond = lu.Cond()
	if math.IsInf(d.cond, 1) || math.IsNaN(d.cond) || d.cond > mat.ConditionTolerance {
		return fmt.Errorf("%w: condition number %g", ErrSingular, d.cond)
	}

	var x mat.VecDense
	if err := lu.SolveVecTo(&x, false, b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return fmt.Errorf("%w: %v", ErrSingular, err)
		}
		return fmt.Errorf("matrix solve failed: %w", err)
	}

	solution := make([]float64, d.size+1)
	for i := 0; i < d.size; i++ {
		solution[i+1] = x.AtVec(i)
	}
	if err := checkSolution(solution); err != nil {
		return err
	}
	d.solution = solution
	return nil
}

func (d *DenseSystem) Solution() []float64 { return d.solution }

// Cond returns the condition number estimate of the last factorization.
func (d *DenseSystem) Cond() float64 { return d.cond }

func (d *DenseSystem) Clear() {
	d.clear()
	d.solution = nil
	d.cond = 0
}

func (d *DenseSystem) Destroy() {}
