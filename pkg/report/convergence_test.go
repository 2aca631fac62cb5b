package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var history = []float64{0.3565, 1.57e-3, 3.71e-6, 1.17e-11}

func TestConvergencePlot(t *testing.T) {
	p, err := ConvergencePlot("three-bus", history, 1e-10)
	require.NoError(t, err)
	assert.Equal(t, "three-bus", p.Title.Text)
	assert.LessOrEqual(t, p.Y.Min, 1.17e-11)
	assert.GreaterOrEqual(t, p.Y.Max, 0.3565)
}

func TestConvergencePlotSkipsNonPositive(t *testing.T) {
	_, err := ConvergencePlot("flat", []float64{0, 0}, 1e-10)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ConvergencePlot("empty", nil, 0)
	assert.ErrorIs(t, err, ErrNoData)

	p, err := ConvergencePlot("mixed", []float64{0.1, 0, 1e-12}, 0)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestSaveConvergence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "convergence.png")
	require.NoError(t, SaveConvergence(path, "three-bus", history, 1e-10))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteConvergenceSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteConvergence(&buf, "svg", "three-bus", history, 1e-10))
	assert.Contains(t, buf.String(), "<svg")

	assert.Error(t, WriteConvergence(&buf, "bogus", "three-bus", history, 1e-10))
}
