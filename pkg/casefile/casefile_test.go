package casefile

import (
	"bytes"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

func threeBusModel(t *testing.T) *network.SystemModel {
	t.Helper()
	m, err := network.NewSystemModel(3)
	require.NoError(t, err)
	for _, bt := range []network.BusType{network.Slack, network.PV, network.PQ} {
		_, err := m.AddBus(bt)
		require.NoError(t, err)
	}
	require.NoError(t, m.AddSlackGenerator(1, 1.0, cmplx.Phase(complex(0.8, 0.6))))
	require.NoError(t, m.AddGenerator(2, 1.02, 3))
	require.NoError(t, m.AddLoad(3, 1.5, 0.8))
	require.NoError(t, m.AddLine(1, 2, 0.05, 0.1, 0))
	require.NoError(t, m.AddLine(1, 3, 0.025, 0.03, 0))
	require.NoError(t, m.AddTransformer(2, 3, 0.02, 0.02, 0, 0))
	require.NoError(t, m.AddCapacitorBank(1, 0.03, network.Delta))
	require.NoError(t, m.AddCapacitorBank(2, 0.05, network.GroundedStar))
	require.NoError(t, m.AddCapacitorBank(3, 0.07, network.Star))
	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := threeBusModel(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m.Describe()))
	out := buf.String()
	assert.Contains(t, out, "max_buses: 3")
	assert.Contains(t, out, "configuration: Delta")
	assert.NotContains(t, out, "voltage_phase: null")

	d, err := Decode(strings.NewReader(out))
	require.NoError(t, err)
	rebuilt, err := network.FromDescription(d)
	require.NoError(t, err)

	assert.True(t, network.Equivalent(m, rebuilt))
	assert.True(t, m.AdmittanceMatrix().Equal(rebuilt.AdmittanceMatrix()))
	assert.Equal(t, m.Describe(), rebuilt.Describe())
}

func TestSaveLoad(t *testing.T) {
	m := threeBusModel(t)
	path := filepath.Join(t.TempDir(), "case.yaml")

	require.NoError(t, Save(path, m))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, network.Equivalent(m, loaded))

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeHandwritten(t *testing.T) {
	doc := `
title: two bus
buses:
  - id: 1
    type: slack
    voltage_magnitude: 1.0
    voltage_phase: 0
  - id: 2
    type: PQ
    active_power: 0.5
    reactive_power: 0.1
branches:
  - {type: line, from: 2, to: 1, r: 0.01, x: 0.1}
capacitor_banks:
  - {bus: 2, b: 0.02, configuration: delta}
`
	d, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "two bus", d.Title)
	assert.Equal(t, 2, d.MaxBuses)

	m, err := network.FromDescription(d)
	require.NoError(t, err)
	assert.True(t, m.HasSlackBeenAssigned())
	assert.Equal(t, network.Connection{From: 1, To: 2}, m.Branches()[0].Connection())
	assert.InDelta(t, 0.06, imag(m.AdmittanceMatrix().At(2, 2))+10/1.01, 1e-9)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":     "max_buses: 2\nbuses: []\nfoo: 1\n",
		"bus order":       "buses:\n  - {id: 2, type: pq}\n",
		"bad bus type":    "buses:\n  - {id: 1, type: swing}\n",
		"bad config":      "buses:\n  - {id: 1, type: pq}\ncapacitor_banks:\n  - {bus: 1, b: 1, configuration: zigzag}\n",
		"bad branch type": "buses:\n  - {id: 1, type: pq}\nbranches:\n  - {type: cable, from: 1, to: 2, r: 1, x: 1}\n",
		"empty":           "",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			require.Error(t, err)
			if name == "bad bus type" || name == "bad config" || name == "bad branch type" {
				assert.ErrorIs(t, err, network.ErrInvalidParameter)
			} else {
				assert.ErrorIs(t, err, ErrInvalidCase)
			}
		})
	}
}
