package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends() []Backend { return []Backend{Sparse, Dense} }

func TestSolveSmallSystem(t *testing.T) {
	// 2x + y - z = 8, -3x - y + 2z = -11, -2x + y + 2z = -3
	a := [][]float64{{2, 1, -1}, {-3, -1, 2}, {-2, 1, 2}}
	b := []float64{8, -11, -3}

	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			sys, err := New(backend, 3)
			require.NoError(t, err)
			defer sys.Destroy()

			for i := range a {
				for j := range a[i] {
					sys.AddElement(i+1, j+1, a[i][j])
				}
				sys.AddRHS(i+1, b[i])
			}
			require.NoError(t, sys.Solve())

			x := sys.Solution()
			require.Len(t, x, 4)
			assert.InDelta(t, 2, x[1], 1e-12)
			assert.InDelta(t, 3, x[2], 1e-12)
			assert.InDelta(t, -1, x[3], 1e-12)
		})
	}
}

func TestAccumulateAndClear(t *testing.T) {
	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			sys, err := New(backend, 2)
			require.NoError(t, err)

			sys.AddElement(1, 1, 1)
			sys.AddElement(1, 1, 1)
			sys.AddElement(2, 2, 4)
			sys.AddRHS(1, 2)
			sys.AddRHS(2, 8)
			require.NoError(t, sys.Solve())
			assert.InDelta(t, 1, sys.Solution()[1], 1e-15)
			assert.InDelta(t, 2, sys.Solution()[2], 1e-15)

			sys.Clear()
			assert.Nil(t, sys.Solution())
			sys.AddElement(1, 1, 1)
			sys.AddElement(2, 2, 1)
			sys.AddRHS(2, 5)
			require.NoError(t, sys.Solve())
			assert.InDelta(t, 0, sys.Solution()[1], 1e-15)
			assert.InDelta(t, 5, sys.Solution()[2], 1e-15)
		})
	}
}

func TestSingularSystems(t *testing.T) {
	cases := map[string][][]float64{
		"zero row":    {{1, 0, 0}, {0, 0, 0}, {0, 0, 1}},
		"zero column": {{1, 0, 0}, {2, 0, 0}, {0, 0, 1}},
		"dependent":   {{1, 2, 0}, {2, 4, 0}, {0, 0, 1}},
	}
	for name, a := range cases {
		for _, backend := range backends() {
			t.Run(name+"/"+string(backend), func(t *testing.T) {
				sys, err := New(backend, 3)
				require.NoError(t, err)
				defer sys.Destroy()
				for i := range a {
					for j := range a[i] {
						if a[i][j] != 0 {
							sys.AddElement(i+1, j+1, a[i][j])
						}
					}
					sys.AddRHS(i+1, 1)
				}
				assert.ErrorIs(t, sys.Solve(), ErrSingular)
				assert.Nil(t, sys.Solution())
			})
		}
	}
}

func TestOutOfBounds(t *testing.T) {
	for _, backend := range backends() {
		sys, err := New(backend, 2)
		require.NoError(t, err)
		sys.AddElement(3, 1, 1)
		assert.ErrorIs(t, sys.Solve(), ErrOutOfBounds, backend)
	}
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	_, err := New("qr", 2)
	assert.ErrorIs(t, err, ErrUnknownSolver)

	_, err = ParseBackend("QR")
	assert.ErrorIs(t, err, ErrUnknownSolver)

	b, err := ParseBackend("Dense")
	require.NoError(t, err)
	assert.Equal(t, Dense, b)

	_, err = New(Dense, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestDenseCondition(t *testing.T) {
	sys, err := NewDenseSystem(2)
	require.NoError(t, err)
	sys.AddElement(1, 1, 1)
	sys.AddElement(2, 2, 10)
	sys.AddRHS(1, 1)
	require.NoError(t, sys.Solve())
	assert.Greater(t, sys.Cond(), 1.0)
}
