package netlist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

const threeBus = `* three-bus example
.maxbuses 3
B1 slack v=1 th=0.6435011087932844
B2 pv v=1.02 p=3
B3 pq p=1.5   q=0.8    * load in p.u.
L1_2 1 2 r=0.05 x=0.1 b=0
L1_3 1 3 r=25m
+ x=30m b=0
T2_3 2 3 r=0.02 x=0.02 g=0 b=0
C1 1 b=0.03 config=delta
C2 2 b=0.05 config=groundedstar
C3 3 b=70m config=star
.end
`

func TestParseThreeBus(t *testing.T) {
	d, err := Parse(threeBus)
	require.NoError(t, err)

	assert.Equal(t, "three-bus example", d.Title)
	assert.Equal(t, 3, d.MaxBuses)
	require.Len(t, d.Buses, 3)
	assert.Equal(t, network.PQ, d.Buses[2].Type)
	q, ok := d.Buses[2].Value(network.ReactivePower)
	require.True(t, ok)
	assert.InDelta(t, 0.8, q, 1e-15)
	_, ok = d.Buses[2].Value(network.VoltageMagnitude)
	assert.False(t, ok)

	require.Len(t, d.Branches, 3)
	assert.Equal(t, network.Line, d.Branches[1].Type)
	assert.InDelta(t, 0.025, d.Branches[1].R, 1e-15)
	assert.InDelta(t, 0.03, d.Branches[1].X, 1e-15)
	assert.Equal(t, network.Transformer, d.Branches[2].Type)

	require.Len(t, d.CapacitorBanks, 3)
	assert.Equal(t, network.Star, d.CapacitorBanks[2].Configuration)

	m, err := network.FromDescription(d)
	require.NoError(t, err)
	assert.True(t, m.HasSlackBeenAssigned())
	y23 := m.AdmittanceMatrix().At(2, 3)
	assert.InDelta(t, -25, real(y23), 1e-12)
	assert.InDelta(t, 25, imag(y23), 1e-12)
}

func TestFormatParseRoundTrip(t *testing.T) {
	d, err := Parse(threeBus)
	require.NoError(t, err)
	original, err := network.FromDescription(d)
	require.NoError(t, err)

	text := Format(original.Describe())
	assert.Contains(t, text, "B3 pq p=1.5 q=0.8\n")
	assert.Contains(t, text, "T2_3 2 3 r=0.02 x=0.02 g=0 b=0\n")

	d2, err := Parse(text)
	require.NoError(t, err)
	rebuilt, err := network.FromDescription(d2)
	require.NoError(t, err)

	assert.True(t, network.Equivalent(original, rebuilt))
	assert.True(t, original.AdmittanceMatrix().Equal(rebuilt.AdmittanceMatrix()))
	assert.Equal(t, text, Format(rebuilt.Describe()))
}

func TestParseValue(t *testing.T) {
	cases := map[string]float64{
		"1":     1,
		"-2.5":  -2.5,
		"20m":   20e-3,
		"1.5k":  1500,
		"2meg":  2e6,
		"1e-05": 1e-5,
		"3.3u":  3.3e-6,
		".5":    0.5,
		"+4E2":  400,
	}
	for in, want := range cases {
		got, err := ParseValue(in)
		require.NoError(t, err, in)
		assert.InDelta(t, want, got, 1e-12*max(1, want), in)
	}

	for _, bad := range []string{"", "abc", "1x", "--1"} {
		_, err := ParseValue(bad)
		assert.ErrorIs(t, err, ErrSyntax, bad)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bus out of order": "* t\nB2 pq p=1 q=1\n",
		"unknown element":  "* t\nX1 1 2\n",
		"bad parameter":    "* t\nB1 pq p=1 z=2\n",
		"duplicate key":    "* t\nB1 pq p=1 p=2\n",
		"bad control":      "* t\n.tran 1 2\n",
		"dangling +":       "* t\n+ r=1\n",
		"after end":        "* t\n.end\nB1 slack\n",
		"line missing bus": "* t\nL1 1\n",
		"missing equals":   "* t\nC1 1 b\n",
		"g on line":        "* t\nL1_2 1 2 r=1 g=1\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			assert.ErrorIs(t, err, ErrSyntax)
		})
	}

	_, err := Parse("* t\nB1 swing\n")
	assert.ErrorIs(t, err, network.ErrInvalidParameter)
}

func TestParseDefaultsMaxBuses(t *testing.T) {
	d, err := Parse("* no limit\nB1 slack v=1 th=0\nB2 pq p=0 q=0\n")
	require.NoError(t, err)
	assert.Equal(t, 2, d.MaxBuses)
}

func TestFormatKeepsTitle(t *testing.T) {
	d, err := Parse(threeBus)
	require.NoError(t, err)
	assert.Equal(t, "three-bus example", d.Title)

	for _, title := range []string{"", "three-bus example"} {
		d.Title = title
		text := Format(d)

		parsed, err := Parse(text)
		require.NoError(t, err)
		assert.Equal(t, title, parsed.Title, "title %q", title)
	}

	d.Title = ""
	assert.True(t, strings.HasPrefix(Format(d), "*\n"))
}
