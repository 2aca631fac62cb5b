package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValueFactor(t *testing.T) {
	cases := []struct {
		value float64
		want  string
	}{
		{0, "0.000 W"},
		{1.5, "1.500 W"},
		{1500, "1.500 kW"},
		{-2.5e6, "-2.500 MW"},
		{0.02, "20.000 mW"},
		{3e-6, "3.000 uW"},
		{1e-9, "1.000e-09 W"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatValueFactor(tc.value, "W"))
	}
}

func TestAngles(t *testing.T) {
	assert.InDelta(t, 180, Degrees(math.Pi), 1e-12)
	assert.Equal(t, " 90.0000 deg", FormatAngle(math.Pi/2))
	assert.Equal(t, "V(3)=0.981669< 39.4011deg", FormatPhasor("V(3)", 0.9816686928372801, 0.6876785523045014))
}

func TestFormatPower(t *testing.T) {
	assert.Equal(t, "  300.0000 - j37.9625", FormatPower(complex(3, -0.3796252710422705), 100))
	assert.Equal(t, "   -1.5000 + j0.0000", FormatPower(complex(-1.5, 0), 1))
	assert.Equal(t, " 1.020000 pu", FormatPerUnit(1.02))
}
