package analysis

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

var (
	threeBusStart     = []float64{1, 1, 1, 1.02, 1.02, 1}
	threeBusReference = []float64{0.643501108793284, 0.737073919144267, 0.689630454314943, 1.0, 1.02, 0.982939705318109}
	threeBusSolution  = []float64{0.6435011087932844, 0.7340234138001219, 0.6876785523045014, 1.0, 1.02, 0.9816686928372801}
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
