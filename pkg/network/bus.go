package network

import (
	"fmt"
	"strings"
)

type BusType int

const (
	Slack BusType = iota
	PV
	PQ
)

func (t BusType) String() string {
	switch t {
	case Slack:
		return "Slack"
	case PV:
		return "PV"
	case PQ:
		return "PQ"
	}
	return fmt.Sprintf("BusType(%d)", int(t))
}

func ParseBusType(s string) (BusType, error) {
	switch strings.ToUpper(s) {
	case "SLACK":
		return Slack, nil
	case "PV":
		return PV, nil
	case "PQ":
		return PQ, nil
	}
	return 0, fmt.Errorf("%w: bus type %q", ErrInvalidParameter, s)
}

func (t BusType) valid() bool { return t >= Slack && t <= PQ }

// Quantity names one of the four electrical values tracked per bus.
type Quantity int

const (
	VoltageMagnitude Quantity = iota
	VoltagePhase
	ActivePower
	ReactivePower
)

func (q Quantity) String() string {
	switch q {
	case VoltageMagnitude:
		return "voltage magnitude"
	case VoltagePhase:
		return "voltage phase"
	case ActivePower:
		return "active power"
	case ReactivePower:
		return "reactive power"
	}
	return fmt.Sprintf("Quantity(%d)", int(q))
}

// Known returns the two quantities a bus of this type fixes as inputs.
// The other two are solved for.
func (t BusType) Known() (Quantity, Quantity) {
	switch t {
	case Slack:
		return VoltageMagnitude, VoltagePhase
	case PV:
		return VoltageMagnitude, ActivePower
	default:
		return ActivePower, ReactivePower
	}
}

// Unknown returns the two quantities the solver determines for this type.
func (t BusType) Unknown() (Quantity, Quantity) {
	switch t {
	case Slack:
		return ActivePower, ReactivePower
	case PV:
		return VoltagePhase, ReactivePower
	default:
		return VoltageMagnitude, VoltagePhase
	}
}

type quantity struct {
	value float64
	set   bool
}

// Bus holds a bus type and its optional quantities. Active and reactive
// power are generation for Slack and PV buses and demand for PQ buses.
type Bus struct {
	busType    BusType
	quantities [4]quantity
}

func NewBus(busType BusType) *Bus {
	return &Bus{busType: busType}
}

func (b *Bus) Type() BusType { return b.busType }

func (b *Bus) Get(q Quantity) (float64, bool) {
	v := b.quantities[q]
	return v.value, v.set
}

func (b *Bus) Set(q Quantity, value float64) {
	b.quantities[q] = quantity{value: value, set: true}
}

// Unset clears q back to unknown.
func (b *Bus) Unset(q Quantity) {
	b.quantities[q] = quantity{}
}

// Require returns q or ErrUnsetQuantity.
func (b *Bus) Require(q Quantity) (float64, error) {
	v := b.quantities[q]
	if !v.set {
		return 0, fmt.Errorf("%w: %s", ErrUnsetQuantity, q)
	}
	return v.value, nil
}

func (b *Bus) VoltageMagnitude() (float64, bool) { return b.Get(VoltageMagnitude) }
func (b *Bus) VoltagePhase() (float64, bool)     { return b.Get(VoltagePhase) }
func (b *Bus) ActivePower() (float64, bool)      { return b.Get(ActivePower) }
func (b *Bus) ReactivePower() (float64, bool)    { return b.Get(ReactivePower) }

func (b *Bus) SetVoltageMagnitude(v float64) { b.Set(VoltageMagnitude, v) }
func (b *Bus) SetVoltagePhase(v float64)     { b.Set(VoltagePhase, v) }
func (b *Bus) SetActivePower(v float64)      { b.Set(ActivePower, v) }
func (b *Bus) SetReactivePower(v float64)    { b.Set(ReactivePower, v) }

// HasKnownValues reports whether both quantities fixed by the bus type are set.
func (b *Bus) HasKnownValues() bool {
	q1, q2 := b.busType.Known()
	return b.quantities[q1].set && b.quantities[q2].set
}

// SpecifiedInjection returns the net injection a mismatch equation must
// match for q (ActivePower or ReactivePower). PQ demand is negated.
func (b *Bus) SpecifiedInjection(q Quantity) (float64, error) {
	v, err := b.Require(q)
	if err != nil {
		return 0, err
	}
	if b.busType == PQ {
		return -v, nil
	}
	return v, nil
}
