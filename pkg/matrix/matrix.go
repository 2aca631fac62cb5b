package matrix

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	ErrSingular      = errors.New("matrix is singular")
	ErrOutOfBounds   = errors.New("matrix index out of bounds")
	ErrUnknownSolver = errors.New("unknown solver backend")
)

// LinearSystem is a square real system A·x = b assembled element by element.
// All indices are 1-based.
type LinearSystem interface {
	Size() int
	AddElement(i, j int, value float64)
	AddRHS(i int, value float64)
	Solve() error
	Solution() []float64 // 1-based, index 0 unused
	Clear()
	Destroy()
}

type Backend string

const (
	Sparse Backend = "sparse"
	Dense  Backend = "dense"
)

func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case Sparse, Dense:
		return b, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSolver, s)
}

func New(backend Backend, size int) (LinearSystem, error) {
	switch backend {
	case Sparse, "":
		return NewSparseSystem(size)
	case Dense:
		return NewDenseSystem(size)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, backend)
}

// entries collects the assembled values so both backends can run the same
// structural checks before factoring.
type entries struct {
	size   int
	values map[[2]int]float64
	rhs    []float64
	err    error
}

func newEntries(size int) entries {
	return entries{
		size:   size,
		values: make(map[[2]int]float64),
		rhs:    make([]float64, size+1),
	}
}

func (e *entries) add(i, j int, value float64) bool {
	if i <= 0 || j <= 0 || i > e.size || j > e.size {
		if e.err == nil {
			e.err = fmt.Errorf("%w: (%d,%d) size %d", ErrOutOfBounds, i, j, e.size)
		}
		return false
	}
	e.values[[2]int{i, j}] += value
	return true
}

func (e *entries) addRHS(i int, value float64) bool {
	if i <= 0 || i > e.size {
		if e.err == nil {
			e.err = fmt.Errorf("%w: rhs %d size %d", ErrOutOfBounds, i, e.size)
		}
		return false
	}
	e.rhs[i] += value
	return true
}

// keys returns the stored positions in row-major order.
func (e *entries) keys() [][2]int {
	keys := make([][2]int, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	return keys
}

func (e *entries) clear() {
	e.values = make(map[[2]int]float64)
	for i := range e.rhs {
		e.rhs[i] = 0
	}
	e.err = nil
}

// check rejects non-finite entries and structurally empty rows or columns.
func (e *entries) check() error {
	if e.err != nil {
		return e.err
	}
	rows := make([]bool, e.size+1)
	cols := make([]bool, e.size+1)
	for key, v := range e.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite element at (%d,%d)", ErrSingular, key[0], key[1])
		}
		if v != 0 {
			rows[key[0]] = true
			cols[key[1]] = true
		}
	}
	for i := 1; i <= e.size; i++ {
		if !rows[i] {
			return fmt.Errorf("%w: row %d is zero", ErrSingular, i)
		}
		if !cols[i] {
			return fmt.Errorf("%w: column %d is zero", ErrSingular, i)
		}
	}
	for i := 1; i <= e.size; i++ {
		if math.IsNaN(e.rhs[i]) || math.IsInf(e.rhs[i], 0) {
			return fmt.Errorf("%w: non-finite rhs at %d", ErrSingular, i)
		}
	}
	return nil
}

func checkSolution(x []float64) error {
	for i := 1; i < len(x); i++ {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
			return fmt.Errorf("%w: non-finite solution at %d", ErrSingular, i)
		}
	}
	return nil
}
