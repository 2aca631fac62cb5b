package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SparseSystem factors with the Markowitz-ordered sparse LU. The sparse
// matrix is created fresh on every Solve so each factorization orders its
// own pivots.
type SparseSystem struct {
	entries
	matrix   *sparse.Matrix
	config   *sparse.Configuration
	solution []float64
}

func NewSparseSystem(size int) (*SparseSystem, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrOutOfBounds, size)
	}
	return &SparseSystem{
		entries: newEntries(size),
		config: &sparse.Configuration{
			Real:                    true,
			Complex:                 false,
			SeparatedComplexVectors: false,
			Expandable:              true,
			Translate:               false,
			ModifiedNodal:           false,
			TiesMultiplier:          5,
			PrinterWidth:            140,
			Annotate:                0,
		},
	}, nil
}

func (s *SparseSystem) Size() int { return s.size }

func (s *SparseSystem) AddElement(i, j int, value float64) { s.add(i, j, value) }

func (s *SparseSystem) AddRHS(i int, value float64) { s.addRHS(i, value) }

func (s *SparseSystem) Solve() error {
	s.solution = nil
	if err := s.check(); err != nil {
		return err
	}

	s.Destroy()
	mat, err := sparse.Create(int64(s.size), s.config)
	if err != nil {
		return fmt.Errorf("creating sparse matrix: %w", err)
	}
	s.matrix = mat

	for i := 1; i <= s.size; i++ {
		s.matrix.GetElement(int64(i), int64(i))
	}
	for _, key := range s.keys() {
		s.matrix.GetElement(int64(key[0]), int64(key[1])).Real += s.values[key]
	}

	if err := s.matrix.Factor(); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	rhs := make([]float64, s.size+1)
	copy(rhs, s.rhs)
	x, err := s.matrix.Solve(rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	if err := checkSolution(x); err != nil {
		return err
	}
	s.solution = x
	return nil
}

func (s *SparseSystem) Solution() []float64 { return s.solution }

func (s *SparseSystem) Clear() {
	s.clear()
	s.solution = nil
}

func (s *SparseSystem) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
		s.matrix = nil
	}
}
