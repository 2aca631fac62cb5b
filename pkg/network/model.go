package network

import (
	"fmt"

	"github.com/edp1096/toy-powerflow/internal/consts"
	"github.com/edp1096/toy-powerflow/internal/logging"
)

// SystemModel owns the buses, branches and capacitor banks of one network
// together with its admittance matrix. It is not safe for concurrent use.
type SystemModel struct {
	maxBuses   int
	buses      []*Bus
	branches   []Branch
	banks      []CapacitorBank
	admittance *AdmittanceMatrix
	log        logging.Logger
}

type Option func(*SystemModel)

func WithLogger(l logging.Logger) Option {
	return func(m *SystemModel) { m.log = logging.OrNoop(l) }
}

func NewSystemModel(maxBuses int, opts ...Option) (*SystemModel, error) {
	if maxBuses < 1 || maxBuses > consts.MaxBuses {
		return nil, fmt.Errorf("%w: max buses %d outside 1..%d", ErrInvalidParameter, maxBuses, consts.MaxBuses)
	}
	m := &SystemModel{
		maxBuses: maxBuses,
		log:      logging.Noop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.recalculateAdmittanceMatrix()
	return m, nil
}

func (m *SystemModel) MaxBuses() int      { return m.maxBuses }
func (m *SystemModel) NumberOfBuses() int { return len(m.buses) }

func (m *SystemModel) checkBus(id int) error {
	if id < 1 || id > len(m.buses) {
		return fmt.Errorf("%w: %d (have %d buses)", ErrInvalidBusIndex, id, len(m.buses))
	}
	return nil
}

// AddBus appends a bus and returns its id.
func (m *SystemModel) AddBus(busType BusType) (int, error) {
	if !busType.valid() {
		return 0, fmt.Errorf("%w: bus type %s", ErrInvalidParameter, busType)
	}
	if len(m.buses) >= m.maxBuses {
		return 0, fmt.Errorf("%w: limit %d", ErrMaxBusesExceeded, m.maxBuses)
	}
	if busType == Slack {
		if id, ok := m.slackID(); ok {
			return 0, fmt.Errorf("%w: bus %d", ErrDuplicateSlack, id)
		}
	}

	m.buses = append(m.buses, NewBus(busType))
	id := len(m.buses)
	m.recalculateAdmittanceMatrix()
	m.log.Debug("bus added", logging.Int("bus", id), logging.String("type", busType.String()))
	return id, nil
}

func (m *SystemModel) typedBus(id int, want BusType) (*Bus, error) {
	if err := m.checkBus(id); err != nil {
		return nil, err
	}
	b := m.buses[id-1]
	if b.busType != want {
		return nil, fmt.Errorf("%w: bus %d is %s, not %s", ErrTypeMismatch, id, b.busType, want)
	}
	return b, nil
}

func (m *SystemModel) AddSlackGenerator(id int, magnitude, phase float64) error {
	b, err := m.typedBus(id, Slack)
	if err != nil {
		return err
	}
	b.SetVoltageMagnitude(magnitude)
	b.SetVoltagePhase(phase)
	return nil
}

func (m *SystemModel) AddGenerator(id int, magnitude, activePower float64) error {
	b, err := m.typedBus(id, PV)
	if err != nil {
		return err
	}
	b.SetVoltageMagnitude(magnitude)
	b.SetActivePower(activePower)
	return nil
}

func (m *SystemModel) AddLoad(id int, activePower, reactivePower float64) error {
	b, err := m.typedBus(id, PQ)
	if err != nil {
		return err
	}
	b.SetActivePower(activePower)
	b.SetReactivePower(reactivePower)
	return nil
}

func (m *SystemModel) slackID() (int, bool) {
	for i, b := range m.buses {
		if b.busType == Slack {
			return i + 1, true
		}
	}
	return 0, false
}

// HasSlackBeenAssigned reports whether the slack bus has both magnitude and phase.
func (m *SystemModel) HasSlackBeenAssigned() bool {
	id, ok := m.slackID()
	return ok && m.buses[id-1].HasKnownValues()
}

func (m *SystemModel) SlackBus() (int, error) {
	if !m.HasSlackBeenAssigned() {
		return 0, ErrMissingSlack
	}
	id, _ := m.slackID()
	return id, nil
}

// Bus returns a mutable reference to bus id.
func (m *SystemModel) Bus(id int) (*Bus, error) {
	if err := m.checkBus(id); err != nil {
		return nil, err
	}
	return m.buses[id-1], nil
}

// Buses returns copies of all buses in id order.
func (m *SystemModel) Buses() []Bus {
	out := make([]Bus, len(m.buses))
	for i, b := range m.buses {
		out[i] = *b
	}
	return out
}

func (m *SystemModel) Branches() []Branch {
	out := make([]Branch, len(m.branches))
	copy(out, m.branches)
	return out
}

func (m *SystemModel) CapacitorBanks() []CapacitorBank {
	out := make([]CapacitorBank, len(m.banks))
	copy(out, m.banks)
	return out
}

func (m *SystemModel) AdmittanceMatrix() *AdmittanceMatrix {
	return m.admittance
}

// RemoveBus deletes bus id with its incident branches and bank. Buses above
// id move down by one and every reference to them is remapped.
func (m *SystemModel) RemoveBus(id int) error {
	if err := m.checkBus(id); err != nil {
		return err
	}
	remap := func(bus int) int {
		if bus > id {
			return bus - 1
		}
		return bus
	}

	buses := make([]*Bus, 0, len(m.buses)-1)
	buses = append(buses, m.buses[:id-1]...)
	buses = append(buses, m.buses[id:]...)

	branches := make([]Branch, 0, len(m.branches))
	dropped := 0
	for _, br := range m.branches {
		if br.From == id || br.To == id {
			dropped++
			continue
		}
		br.From, br.To = remap(br.From), remap(br.To)
		branches = append(branches, br)
	}

	banks := make([]CapacitorBank, 0, len(m.banks))
	for _, cb := range m.banks {
		if cb.Bus == id {
			dropped++
			continue
		}
		cb.Bus = remap(cb.Bus)
		banks = append(banks, cb)
	}

	m.buses, m.branches, m.banks = buses, branches, banks
	m.recalculateAdmittanceMatrix()
	m.log.Debug("bus removed", logging.Int("bus", id), logging.Int("elements_dropped", dropped))
	return nil
}

func (m *SystemModel) findBranch(c Connection) int {
	for i, br := range m.branches {
		if br.Connection() == c {
			return i
		}
	}
	return -1
}

func (m *SystemModel) findBank(bus int) int {
	for i, cb := range m.banks {
		if cb.Bus == bus {
			return i
		}
	}
	return -1
}

func (m *SystemModel) addBranch(br Branch) error {
	if err := m.checkBus(br.From); err != nil {
		return err
	}
	if err := m.checkBus(br.To); err != nil {
		return err
	}
	if br.From == br.To {
		return fmt.Errorf("%w: branch endpoints are both %d", ErrInvalidBusIndex, br.From)
	}
	c := br.Connection()
	br.From, br.To = c.From, c.To
	if err := br.validate(); err != nil {
		return err
	}
	if m.findBranch(c) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateConnection, c)
	}

	m.branches = append(m.branches, br)
	m.recalculateAdmittanceMatrix()
	m.log.Debug("branch added", logging.String("type", br.Type.String()), logging.String("connection", c.String()))
	return nil
}

func (m *SystemModel) AddLine(bus1, bus2 int, r, x, b float64) error {
	return m.addBranch(Branch{Type: Line, From: bus1, To: bus2, R: r, X: x, B: b})
}

func (m *SystemModel) AddTransformer(bus1, bus2 int, r, x, g, b float64) error {
	return m.addBranch(Branch{Type: Transformer, From: bus1, To: bus2, R: r, X: x, G: g, B: b})
}

func (m *SystemModel) changeBranch(br Branch) error {
	c := br.Connection()
	i := m.findBranch(c)
	if i < 0 {
		return fmt.Errorf("%w: branch %s", ErrNotFound, c)
	}
	if m.branches[i].Type != br.Type {
		return fmt.Errorf("%w: branch %s is a %s", ErrTypeMismatch, c, m.branches[i].Type)
	}
	br.From, br.To = c.From, c.To
	if err := br.validate(); err != nil {
		return err
	}

	m.branches[i] = br
	m.recalculateAdmittanceMatrix()
	m.log.Debug("branch changed", logging.String("connection", c.String()))
	return nil
}

func (m *SystemModel) ChangeLine(bus1, bus2 int, r, x, b float64) error {
	return m.changeBranch(Branch{Type: Line, From: bus1, To: bus2, R: r, X: x, B: b})
}

func (m *SystemModel) ChangeTransformer(bus1, bus2 int, r, x, g, b float64) error {
	return m.changeBranch(Branch{Type: Transformer, From: bus1, To: bus2, R: r, X: x, G: g, B: b})
}

// RemoveBranch deletes the line or transformer between bus1 and bus2.
func (m *SystemModel) RemoveBranch(bus1, bus2 int) error {
	c := NewConnection(bus1, bus2)
	i := m.findBranch(c)
	if i < 0 {
		return fmt.Errorf("%w: branch %s", ErrNotFound, c)
	}

	m.branches = append(m.branches[:i:i], m.branches[i+1:]...)
	m.recalculateAdmittanceMatrix()
	m.log.Debug("branch removed", logging.String("connection", c.String()))
	return nil
}

func (m *SystemModel) AddCapacitorBank(bus int, b float64, cfg Configuration) error {
	if err := m.checkBus(bus); err != nil {
		return err
	}
	cb := CapacitorBank{Bus: bus, B: b, Configuration: cfg}
	if err := cb.validate(); err != nil {
		return err
	}
	if m.findBank(bus) >= 0 {
		return fmt.Errorf("%w: capacitor bank at bus %d", ErrDuplicateConnection, bus)
	}

	m.banks = append(m.banks, cb)
	m.recalculateAdmittanceMatrix()
	m.log.Debug("capacitor bank added", logging.Int("bus", bus), logging.String("configuration", cfg.String()))
	return nil
}

func (m *SystemModel) ChangeCapacitorBank(bus int, b float64, cfg Configuration) error {
	i := m.findBank(bus)
	if i < 0 {
		return fmt.Errorf("%w: capacitor bank at bus %d", ErrNotFound, bus)
	}
	cb := CapacitorBank{Bus: bus, B: b, Configuration: cfg}
	if err := cb.validate(); err != nil {
		return err
	}

	m.banks[i] = cb
	m.recalculateAdmittanceMatrix()
	m.log.Debug("capacitor bank changed", logging.Int("bus", bus))
	return nil
}

func (m *SystemModel) RemoveCapacitorBank(bus int) error {
	i := m.findBank(bus)
	if i < 0 {
		return fmt.Errorf("%w: capacitor bank at bus %d", ErrNotFound, bus)
	}

	m.banks = append(m.banks[:i:i], m.banks[i+1:]...)
	m.recalculateAdmittanceMatrix()
	m.log.Debug("capacitor bank removed", logging.Int("bus", bus))
	return nil
}

func (m *SystemModel) recalculateAdmittanceMatrix() {
	m.admittance = buildAdmittance(len(m.buses), m.branches, m.banks)
}
