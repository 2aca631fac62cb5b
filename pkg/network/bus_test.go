package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusTypeQuantities(t *testing.T) {
	cases := []struct {
		busType      BusType
		known1       Quantity
		known2       Quantity
		unknownFirst Quantity
	}{
		{Slack, VoltageMagnitude, VoltagePhase, ActivePower},
		{PV, VoltageMagnitude, ActivePower, VoltagePhase},
		{PQ, ActivePower, ReactivePower, VoltageMagnitude},
	}
	for _, tc := range cases {
		t.Run(tc.busType.String(), func(t *testing.T) {
			k1, k2 := tc.busType.Known()
			assert.Equal(t, tc.known1, k1)
			assert.Equal(t, tc.known2, k2)
			u1, u2 := tc.busType.Unknown()
			assert.Equal(t, tc.unknownFirst, u1)
			assert.NotContains(t, []Quantity{k1, k2}, u1)
			assert.NotContains(t, []Quantity{k1, k2}, u2)
		})
	}
}

func TestBusRequire(t *testing.T) {
	b := NewBus(PQ)
	_, err := b.Require(ActivePower)
	assert.ErrorIs(t, err, ErrUnsetQuantity)
	assert.False(t, b.HasKnownValues())

	b.SetActivePower(1.5)
	b.SetReactivePower(0.8)
	assert.True(t, b.HasKnownValues())

	p, err := b.SpecifiedInjection(ActivePower)
	require.NoError(t, err)
	assert.Equal(t, -1.5, p)

	g := NewBus(PV)
	g.SetActivePower(3)
	p, err = g.SpecifiedInjection(ActivePower)
	require.NoError(t, err)
	assert.Equal(t, 3.0, p)
}

func TestParseEnums(t *testing.T) {
	bt, err := ParseBusType("pv")
	require.NoError(t, err)
	assert.Equal(t, PV, bt)
	_, err = ParseBusType("load")
	assert.ErrorIs(t, err, ErrInvalidParameter)

	cfg, err := ParseConfiguration("groundedstar")
	require.NoError(t, err)
	assert.Equal(t, GroundedStar, cfg)
	_, err = ParseConfiguration("zigzag")
	assert.ErrorIs(t, err, ErrInvalidParameter)

	brt, err := ParseBranchType("Transformer")
	require.NoError(t, err)
	assert.Equal(t, Transformer, brt)
}
