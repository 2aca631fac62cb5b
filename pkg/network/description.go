package network

import (
	"fmt"
	"sort"
)

// Description is a plain snapshot of a model, used by the case-file
// readers and writers. Unset quantities are nil.
type Description struct {
	Title          string
	MaxBuses       int
	Buses          []BusDescription
	Branches       []Branch
	CapacitorBanks []CapacitorBank
}

type BusDescription struct {
	Type             BusType
	VoltageMagnitude *float64
	VoltagePhase     *float64
	ActivePower      *float64
	ReactivePower    *float64
}

func (d *BusDescription) field(q Quantity) **float64 {
	switch q {
	case VoltageMagnitude:
		return &d.VoltageMagnitude
	case VoltagePhase:
		return &d.VoltagePhase
	case ActivePower:
		return &d.ActivePower
	default:
		return &d.ReactivePower
	}
}

// Value returns the quantity q if present.
func (d *BusDescription) Value(q Quantity) (float64, bool) {
	p := *d.field(q)
	if p == nil {
		return 0, false
	}
	return *p, true
}

func (d *BusDescription) SetValue(q Quantity, v float64) {
	*d.field(q) = &v
}

var allQuantities = [...]Quantity{VoltageMagnitude, VoltagePhase, ActivePower, ReactivePower}

// Describe snapshots the model. Branches and banks come out in canonical order.
func (m *SystemModel) Describe() Description {
	d := Description{
		MaxBuses:       m.maxBuses,
		Buses:          make([]BusDescription, len(m.buses)),
		Branches:       m.Branches(),
		CapacitorBanks: m.CapacitorBanks(),
	}
	for i, b := range m.buses {
		bd := BusDescription{Type: b.busType}
		for _, q := range allQuantities {
			if v, ok := b.Get(q); ok {
				bd.SetValue(q, v)
			}
		}
		d.Buses[i] = bd
	}
	sortBranches(d.Branches)
	sortBanks(d.CapacitorBanks)
	return d
}

// FromDescription rebuilds a model by replaying the add operations.
func FromDescription(d Description, opts ...Option) (*SystemModel, error) {
	m, err := NewSystemModel(d.MaxBuses, opts...)
	if err != nil {
		return nil, err
	}
	for i, bd := range d.Buses {
		id, err := m.AddBus(bd.Type)
		if err != nil {
			return nil, fmt.Errorf("bus %d: %w", i+1, err)
		}
		b := m.buses[id-1]
		for _, q := range allQuantities {
			if v, ok := bd.Value(q); ok {
				b.Set(q, v)
			}
		}
	}
	for _, br := range d.Branches {
		switch br.Type {
		case Line:
			err = m.AddLine(br.From, br.To, br.R, br.X, br.B)
		case Transformer:
			err = m.AddTransformer(br.From, br.To, br.R, br.X, br.G, br.B)
		default:
			err = fmt.Errorf("%w: branch type %s", ErrInvalidParameter, br.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("branch %s: %w", br.Connection(), err)
		}
	}
	for _, cb := range d.CapacitorBanks {
		if err := m.AddCapacitorBank(cb.Bus, cb.B, cb.Configuration); err != nil {
			return nil, fmt.Errorf("capacitor bank at bus %d: %w", cb.Bus, err)
		}
	}
	return m, nil
}

// Equivalent reports whether two models have the same buses, known values,
// branch set and capacitor-bank set.
func Equivalent(a, b *SystemModel) bool {
	if len(a.buses) != len(b.buses) {
		return false
	}
	for i := range a.buses {
		ba, bb := a.buses[i], b.buses[i]
		if ba.busType != bb.busType {
			return false
		}
		q1, q2 := ba.busType.Known()
		if ba.quantities[q1] != bb.quantities[q1] || ba.quantities[q2] != bb.quantities[q2] {
			return false
		}
	}

	brA, brB := a.Branches(), b.Branches()
	cbA, cbB := a.CapacitorBanks(), b.CapacitorBanks()
	if len(brA) != len(brB) || len(cbA) != len(cbB) {
		return false
	}
	sortBranches(brA)
	sortBranches(brB)
	for i := range brA {
		if brA[i] != brB[i] {
			return false
		}
	}
	sortBanks(cbA)
	sortBanks(cbB)
	for i := range cbA {
		if cbA[i] != cbB[i] {
			return false
		}
	}
	return true
}

func sortBranches(brs []Branch) {
	sort.Slice(brs, func(i, j int) bool { return brs[i].Connection().less(brs[j].Connection()) })
}

func sortBanks(cbs []CapacitorBank) {
	sort.Slice(cbs, func(i, j int) bool { return cbs[i].Bus < cbs[j].Bus })
}
