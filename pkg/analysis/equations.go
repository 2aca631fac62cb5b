package analysis

import (
	"fmt"
	"math"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

// Mismatch is one scalar equation of the power-flow system over the state
// vector x. A solution drives every Mismatch to zero. Both methods return NaN
// when x does not match the layout size or k is out of range.
type Mismatch interface {
	Evaluate(x []float64) float64
	// Derivative returns the partial derivative with respect to x[k].
	Derivative(x []float64, k int) float64
}

// DerivativeFunc evaluates one fixed partial derivative at x.
type DerivativeFunc func(x []float64) float64

type coupling struct {
	bus  int // 0-based
	g, b float64
}

// Generator produces the mismatch equations of a model snapshot. Later
// changes to the model are not seen by an existing Generator.
type Generator struct {
	layout *Layout
	n      int
	gii    []float64
	bii    []float64
	adj    [][]coupling // off-diagonal couplings per bus

	types     []network.BusType
	phase     []float64 // known values, used for buses outside x
	magnitude []float64

	first  []equation
	second []equation
}

type equation interface {
	Mismatch
	residual(st *state) float64
	partials(st *state, add func(k int, v float64))
}

type state struct {
	theta []float64
	v     []float64
}

func NewGenerator(model *network.SystemModel, f Formulation) (*Generator, error) {
	if !model.HasSlackBeenAssigned() {
		return nil, network.ErrMissingSlack
	}
	types := busTypes(model)
	layout, err := NewLayout(types, f)
	if err != nil {
		return nil, err
	}

	n := len(types)
	g := &Generator{
		layout:    layout,
		n:         n,
		gii:       make([]float64, n),
		bii:       make([]float64, n),
		adj:       make([][]coupling, n),
		types:     types,
		phase:     make([]float64, n),
		magnitude: make([]float64, n),
		first:     make([]equation, n),
		second:    make([]equation, n),
	}

	for _, e := range model.AdmittanceMatrix().Entries() {
		i, k := e.Row-1, e.Col-1
		if i == k {
			g.gii[i], g.bii[i] = real(e.Value), imag(e.Value)
			continue
		}
		g.adj[i] = append(g.adj[i], coupling{bus: k, g: real(e.Value), b: imag(e.Value)})
	}

	for i := 0; i < n; i++ {
		bus, err := model.Bus(i + 1)
		if err != nil {
			return nil, err
		}
		if err := g.setupBus(i, bus); err != nil {
			return nil, fmt.Errorf("bus %d: %w", i+1, err)
		}
	}
	return g, nil
}

func (g *Generator) setupBus(i int, bus *network.Bus) error {
	id := i + 1
	switch bus.Type() {
	case network.Slack:
		v, err := bus.Require(network.VoltageMagnitude)
		if err != nil {
			return err
		}
		th, err := bus.Require(network.VoltagePhase)
		if err != nil {
			return err
		}
		g.magnitude[i], g.phase[i] = v, th
		if g.layout.formulation == FullState {
			g.first[i] = &constraint{gen: g, slot: g.layout.phase[i], value: th}
			g.second[i] = &constraint{gen: g, slot: g.layout.magnitude[i], value: v}
		}
	case network.PV:
		v, err := bus.Require(network.VoltageMagnitude)
		if err != nil {
			return err
		}
		p, err := bus.SpecifiedInjection(network.ActivePower)
		if err != nil {
			return err
		}
		g.magnitude[i] = v
		g.first[i] = &powerMismatch{gen: g, bus: id, specified: p}
		if g.layout.formulation == FullState {
			g.second[i] = &constraint{gen: g, slot: g.layout.magnitude[i], value: v}
		}
	case network.PQ:
		p, err := bus.SpecifiedInjection(network.ActivePower)
		if err != nil {
			return err
		}
		q, err := bus.SpecifiedInjection(network.ReactivePower)
		if err != nil {
			return err
		}
		g.first[i] = &powerMismatch{gen: g, bus: id, specified: p}
		g.second[i] = &powerMismatch{gen: g, bus: id, specified: q, reactive: true}
	}
	return nil
}

func (g *Generator) Layout() *Layout { return g.layout }

// BusFunctions returns the two mismatch equations owned by bus id. An
// equation the layout does not carry is nil.
func (g *Generator) BusFunctions(id int) (first, second Mismatch, err error) {
	if id < 1 || id > g.n {
		return nil, nil, fmt.Errorf("%w: %d", network.ErrInvalidBusIndex, id)
	}
	if eq := g.first[id-1]; eq != nil {
		first = eq
	}
	if eq := g.second[id-1]; eq != nil {
		second = eq
	}
	return first, second, nil
}

// BusDerivatives returns, for both equations of bus id, one function per
// state slot evaluating the partial derivative with respect to that slot.
func (g *Generator) BusDerivatives(id int) (first, second []DerivativeFunc, err error) {
	f, s, err := g.BusFunctions(id)
	if err != nil {
		return nil, nil, err
	}
	return g.derivatives(f), g.derivatives(s), nil
}

func (g *Generator) derivatives(m Mismatch) []DerivativeFunc {
	if m == nil {
		return nil
	}
	out := make([]DerivativeFunc, g.layout.Size())
	for k := range out {
		k := k
		out[k] = func(x []float64) float64 { return m.Derivative(x, k) }
	}
	return out
}

// Equations lists every first equation in bus order followed by every
// second equation in bus order. Row r of the Jacobian is Equations()[r].
func (g *Generator) Equations() []Mismatch {
	eqs := g.equations()
	out := make([]Mismatch, len(eqs))
	for i, eq := range eqs {
		out[i] = eq
	}
	return out
}

func (g *Generator) equations() []equation {
	eqs := make([]equation, 0, 2*g.n)
	for _, eq := range g.first {
		if eq != nil {
			eqs = append(eqs, eq)
		}
	}
	for _, eq := range g.second {
		if eq != nil {
			eqs = append(eqs, eq)
		}
	}
	return eqs
}

func (g *Generator) checkState(x []float64) error {
	if len(x) != g.layout.Size() {
		return fmt.Errorf("%w: length %d, want %d", ErrInitialGuess, len(x), g.layout.Size())
	}
	return nil
}

func (g *Generator) validState(x []float64) bool { return len(x) == g.layout.Size() }

func (g *Generator) validSlot(k int) bool { return k >= 0 && k < g.layout.Size() }

func (g *Generator) state(x []float64) *state {
	st := &state{theta: make([]float64, g.n), v: make([]float64, g.n)}
	for i := 0; i < g.n; i++ {
		if k := g.layout.phase[i]; k >= 0 {
			st.theta[i] = x[k]
		} else {
			st.theta[i] = g.phase[i]
		}
		if k := g.layout.magnitude[i]; k >= 0 {
			st.v[i] = x[k]
		} else {
			st.v[i] = g.magnitude[i]
		}
	}
	return st
}

// Residual evaluates F(x).
func (g *Generator) Residual(x []float64) ([]float64, error) {
	if err := g.checkState(x); err != nil {
		return nil, err
	}
	st := g.state(x)
	eqs := g.equations()
	f := make([]float64, len(eqs))
	for r, eq := range eqs {
		f[r] = eq.residual(st)
	}
	return f, nil
}

// Jacobian evaluates J(x) as a dense row-major matrix.
func (g *Generator) Jacobian(x []float64) ([][]float64, error) {
	if err := g.checkState(x); err != nil {
		return nil, err
	}
	size := g.layout.Size()
	j := make([][]float64, size)
	for r := range j {
		j[r] = make([]float64, size)
	}
	g.stampJacobian(g.state(x), func(r, k int, v float64) { j[r][k] += v })
	return j, nil
}

func (g *Generator) stampJacobian(st *state, add func(r, k int, v float64)) {
	for r, eq := range g.equations() {
		eq.partials(st, func(k int, v float64) { add(r, k, v) })
	}
}

// injection returns the computed net P or Q injection of 0-based bus i.
func (g *Generator) injection(st *state, i int, reactive bool) float64 {
	vi := st.v[i]
	var sum float64
	if reactive {
		sum = -vi * g.bii[i]
	} else {
		sum = vi * g.gii[i]
	}
	for _, c := range g.adj[i] {
		t := st.theta[i] - st.theta[c.bus]
		sin, cos := math.Sincos(t)
		if reactive {
			sum += st.v[c.bus] * (c.g*sin - c.b*cos)
		} else {
			sum += st.v[c.bus] * (c.g*cos + c.b*sin)
		}
	}
	return vi * sum
}

// powerMismatch is P_i(x) - P_spec or Q_i(x) - Q_spec.
type powerMismatch struct {
	gen       *Generator
	bus       int
	specified float64
	reactive  bool
}

func (m *powerMismatch) Evaluate(x []float64) float64 {
	if !m.gen.validState(x) {
		return math.NaN()
	}
	return m.residual(m.gen.state(x))
}

func (m *powerMismatch) Derivative(x []float64, k int) float64 {
	if !m.gen.validState(x) || !m.gen.validSlot(k) {
		return math.NaN()
	}
	var d float64
	m.partials(m.gen.state(x), func(slot int, v float64) {
		if slot == k {
			d += v
		}
	})
	return d
}

func (m *powerMismatch) residual(st *state) float64 {
	return m.gen.injection(st, m.bus-1, m.reactive) - m.specified
}

func (m *powerMismatch) partials(st *state, add func(k int, v float64)) {
	g := m.gen
	i := m.bus - 1
	vi, thi := st.v[i], st.theta[i]

	var dThetaI, dVI float64
	if m.reactive {
		dVI = -2 * vi * g.bii[i]
	} else {
		dVI = 2 * vi * g.gii[i]
	}

	for _, c := range g.adj[i] {
		vk := st.v[c.bus]
		sin, cos := math.Sincos(thi - st.theta[c.bus])
		a := c.g*cos + c.b*sin
		b := c.g*sin - c.b*cos

		var dThetaK, dVK float64
		if m.reactive {
			dThetaI += vi * vk * a
			dThetaK = -vi * vk * a
			dVI += vk * b
			dVK = vi * b
		} else {
			dThetaI += -vi * vk * b
			dThetaK = vi * vk * b
			dVI += vk * a
			dVK = vi * a
		}
		if slot := g.layout.phase[c.bus]; slot >= 0 {
			add(slot, dThetaK)
		}
		if slot := g.layout.magnitude[c.bus]; slot >= 0 {
			add(slot, dVK)
		}
	}

	if slot := g.layout.phase[i]; slot >= 0 {
		add(slot, dThetaI)
	}
	if slot := g.layout.magnitude[i]; slot >= 0 {
		add(slot, dVI)
	}
}

// constraint pins a state slot to a known value: x[slot] - value.
type constraint struct {
	gen   *Generator
	slot  int
	value float64
}

func (c *constraint) Evaluate(x []float64) float64 {
	if !c.gen.validState(x) {
		return math.NaN()
	}
	return x[c.slot] - c.value
}

func (c *constraint) Derivative(x []float64, k int) float64 {
	if !c.gen.validState(x) || !c.gen.validSlot(k) {
		return math.NaN()
	}
	if k == c.slot {
		return 1
	}
	return 0
}

func (c *constraint) residual(st *state) float64 {
	bus, magnitude, _ := c.gen.layout.Variable(c.slot)
	if magnitude {
		return st.v[bus-1] - c.value
	}
	return st.theta[bus-1] - c.value
}

func (c *constraint) partials(_ *state, add func(k int, v float64)) { add(c.slot, 1) }
