package analysis

import (
	"fmt"
	"strings"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

// Formulation selects which bus quantities live in the state vector.
type Formulation int

const (
	// FullState carries a phase and a magnitude for every bus:
	// x = [θ1..θN, V1..VN]. Known values become identity constraints.
	FullState Formulation = iota
	// ReducedState carries only true unknowns: x = [θ of non-slack buses,
	// V of PQ buses], each group in bus order.
	ReducedState
)

func (f Formulation) String() string {
	switch f {
	case FullState:
		return "full"
	case ReducedState:
		return "reduced"
	}
	return fmt.Sprintf("Formulation(%d)", int(f))
}

func ParseFormulation(s string) (Formulation, error) {
	switch strings.ToLower(s) {
	case "full", "":
		return FullState, nil
	case "reduced":
		return ReducedState, nil
	}
	return 0, fmt.Errorf("%w: formulation %q", network.ErrInvalidParameter, s)
}

type variable struct {
	bus       int
	magnitude bool
}

// Layout maps bus phases and magnitudes to slots of the state vector.
type Layout struct {
	formulation Formulation
	phase       []int // per bus (0-based), -1 when not in x
	magnitude   []int
	slots       []variable
}

func NewLayout(buses []network.BusType, f Formulation) (*Layout, error) {
	if f != FullState && f != ReducedState {
		return nil, fmt.Errorf("%w: formulation %s", network.ErrInvalidParameter, f)
	}
	n := len(buses)
	l := &Layout{
		formulation: f,
		phase:       make([]int, n),
		magnitude:   make([]int, n),
	}
	for i, t := range buses {
		l.phase[i] = -1
		if f == FullState || t != network.Slack {
			l.phase[i] = len(l.slots)
			l.slots = append(l.slots, variable{bus: i + 1})
		}
	}
	for i, t := range buses {
		l.magnitude[i] = -1
		if f == FullState || t == network.PQ {
			l.magnitude[i] = len(l.slots)
			l.slots = append(l.slots, variable{bus: i + 1, magnitude: true})
		}
	}
	return l, nil
}

func (l *Layout) Formulation() Formulation { return l.formulation }

// Size is the length of the state vector.
func (l *Layout) Size() int { return len(l.slots) }

func (l *Layout) PhaseIndex(bus int) (int, bool) {
	if bus < 1 || bus > len(l.phase) || l.phase[bus-1] < 0 {
		return 0, false
	}
	return l.phase[bus-1], true
}

func (l *Layout) MagnitudeIndex(bus int) (int, bool) {
	if bus < 1 || bus > len(l.magnitude) || l.magnitude[bus-1] < 0 {
		return 0, false
	}
	return l.magnitude[bus-1], true
}

// Variable describes slot k: the bus it belongs to and whether it is a
// magnitude (true) or a phase (false).
func (l *Layout) Variable(k int) (bus int, magnitude bool, ok bool) {
	if k < 0 || k >= len(l.slots) {
		return 0, false, false
	}
	v := l.slots[k]
	return v.bus, v.magnitude, true
}

func busTypes(model *network.SystemModel) []network.BusType {
	buses := model.Buses()
	types := make([]network.BusType, len(buses))
	for i := range buses {
		types[i] = buses[i].Type()
	}
	return types
}
