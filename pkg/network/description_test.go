package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeRoundTrip(t *testing.T) {
	m := threeBusModel(t)

	d := m.Describe()
	assert.Equal(t, 3, d.MaxBuses)
	require.Len(t, d.Buses, 3)
	v, ok := d.Buses[1].Value(VoltageMagnitude)
	assert.True(t, ok)
	assert.Equal(t, 1.02, v)
	_, ok = d.Buses[1].Value(VoltagePhase)
	assert.False(t, ok)

	rebuilt, err := FromDescription(d)
	require.NoError(t, err)
	assert.True(t, Equivalent(m, rebuilt))
	assert.True(t, m.AdmittanceMatrix().Equal(rebuilt.AdmittanceMatrix()))
	assert.Equal(t, d, rebuilt.Describe())
}

func TestEquivalentDetectsDifferences(t *testing.T) {
	m := threeBusModel(t)

	other := threeBusModel(t)
	require.NoError(t, other.ChangeCapacitorBank(3, 0.07, Delta))
	assert.False(t, Equivalent(m, other))

	other = threeBusModel(t)
	require.NoError(t, other.AddLoad(3, 1.5, 0.9))
	assert.False(t, Equivalent(m, other))

	other = threeBusModel(t)
	require.NoError(t, other.RemoveBranch(2, 3))
	assert.False(t, Equivalent(m, other))

	other = threeBusModel(t)
	b, err := other.Bus(3)
	require.NoError(t, err)
	b.SetVoltageMagnitude(0.98)
	assert.True(t, Equivalent(m, other), "solved quantities are not part of equivalence")
}

func TestFromDescriptionRejectsInvalid(t *testing.T) {
	d := Description{
		MaxBuses: 2,
		Buses:    []BusDescription{{Type: Slack}, {Type: PQ}},
		Branches: []Branch{{Type: Line, From: 1, To: 3, R: 0.1, X: 0.1}},
	}
	_, err := FromDescription(d)
	assert.ErrorIs(t, err, ErrInvalidBusIndex)

	d.Branches = nil
	d.Buses = append(d.Buses, BusDescription{Type: PV})
	_, err = FromDescription(d)
	assert.ErrorIs(t, err, ErrMaxBusesExceeded)

	d.MaxBuses = 0
	_, err = FromDescription(d)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
