package netlist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

var busKeyOrder = []struct {
	key string
	q   network.Quantity
}{
	{"v", network.VoltageMagnitude},
	{"th", network.VoltagePhase},
	{"p", network.ActivePower},
	{"q", network.ReactivePower},
}

// Format writes d in the form read by Parse. Values are printed with the
// shortest representation that parses back to the same float64.
func Format(d network.Description) string {
	var sb strings.Builder

	if d.Title == "" {
		sb.WriteString("*\n")
	} else {
		fmt.Fprintf(&sb, "* %s\n", d.Title)
	}
	fmt.Fprintf(&sb, ".maxbuses %d\n", d.MaxBuses)

	for i, b := range d.Buses {
		fmt.Fprintf(&sb, "B%d %s", i+1, strings.ToLower(b.Type.String()))
		for _, k := range busKeyOrder {
			if v, ok := b.Value(k.q); ok {
				fmt.Fprintf(&sb, " %s=%s", k.key, formatFloat(v))
			}
		}
		sb.WriteByte('\n')
	}

	for _, br := range d.Branches {
		switch br.Type {
		case network.Transformer:
			fmt.Fprintf(&sb, "T%d_%d %d %d r=%s x=%s g=%s b=%s\n", br.From, br.To, br.From, br.To,
				formatFloat(br.R), formatFloat(br.X), formatFloat(br.G), formatFloat(br.B))
		default:
			fmt.Fprintf(&sb, "L%d_%d %d %d r=%s x=%s b=%s\n", br.From, br.To, br.From, br.To,
				formatFloat(br.R), formatFloat(br.X), formatFloat(br.B))
		}
	}

	for _, cb := range d.CapacitorBanks {
		fmt.Fprintf(&sb, "C%d %d b=%s config=%s\n", cb.Bus, cb.Bus, formatFloat(cb.B), strings.ToLower(cb.Configuration.String()))
	}

	sb.WriteString(".end\n")
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
