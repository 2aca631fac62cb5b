package network

import (
	"fmt"
	"math"
	"strings"

	"github.com/edp1096/toy-powerflow/internal/consts"
)

type BranchType int

const (
	Line BranchType = iota
	Transformer
)

func (t BranchType) String() string {
	switch t {
	case Line:
		return "Line"
	case Transformer:
		return "Transformer"
	}
	return fmt.Sprintf("BranchType(%d)", int(t))
}

func ParseBranchType(s string) (BranchType, error) {
	switch strings.ToUpper(s) {
	case "LINE":
		return Line, nil
	case "TRANSFORMER", "XFMR":
		return Transformer, nil
	}
	return 0, fmt.Errorf("%w: branch type %q", ErrInvalidParameter, s)
}

// Connection is the unordered bus pair a branch joins, stored with From < To.
type Connection struct {
	From int
	To   int
}

func NewConnection(bus1, bus2 int) Connection {
	if bus1 > bus2 {
		bus1, bus2 = bus2, bus1
	}
	return Connection{From: bus1, To: bus2}
}

func (c Connection) String() string { return fmt.Sprintf("%d-%d", c.From, c.To) }

func (c Connection) less(o Connection) bool {
	if c.From != o.From {
		return c.From < o.From
	}
	return c.To < o.To
}

// Branch is a pi-model line or transformer. G and B are the total shunt
// admittance, split equally between both ends.
type Branch struct {
	Type BranchType
	From int
	To   int
	R    float64
	X    float64
	G    float64
	B    float64
}

func (br Branch) Connection() Connection { return NewConnection(br.From, br.To) }

func (br Branch) SeriesAdmittance() complex128 {
	return 1 / complex(br.R, br.X)
}

func (br Branch) ShuntAdmittance() complex128 {
	return complex(br.G, br.B)
}

func (br Branch) validate() error {
	for _, v := range []float64{br.R, br.X, br.G, br.B} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: branch %s has non-finite parameter", ErrInvalidParameter, br.Connection())
		}
	}
	if br.R == 0 && br.X == 0 {
		return fmt.Errorf("%w: branch %s has zero series impedance", ErrInvalidParameter, br.Connection())
	}
	return nil
}

// Stamp adds the branch pi-model to the nodal admittance matrix.
func (br Branch) Stamp(s AdmittanceStamper) {
	y := br.SeriesAdmittance()
	half := br.ShuntAdmittance() / 2

	s.AddAdmittance(br.From, br.From, y+half)
	s.AddAdmittance(br.To, br.To, y+half)
	s.AddAdmittance(br.From, br.To, -y)
	s.AddAdmittance(br.To, br.From, -y)
}

type Configuration int

const (
	Star Configuration = iota
	GroundedStar
	Delta
)

func (c Configuration) String() string {
	switch c {
	case Star:
		return "Star"
	case GroundedStar:
		return "GroundedStar"
	case Delta:
		return "Delta"
	}
	return fmt.Sprintf("Configuration(%d)", int(c))
}

func ParseConfiguration(s string) (Configuration, error) {
	switch strings.ToUpper(s) {
	case "STAR", "Y":
		return Star, nil
	case "GROUNDEDSTAR", "YN":
		return GroundedStar, nil
	case "DELTA", "D":
		return Delta, nil
	}
	return 0, fmt.Errorf("%w: configuration %q", ErrInvalidParameter, s)
}

// SusceptanceFactor scales a per-phase bank susceptance to its single-line
// equivalent. An ungrounded star has no path to the reference node.
func (c Configuration) SusceptanceFactor() float64 {
	switch c {
	case GroundedStar:
		return 1
	case Delta:
		return consts.DeltaEquivalent
	default:
		return 0
	}
}

type CapacitorBank struct {
	Bus           int
	B             float64
	Configuration Configuration
}

func (cb CapacitorBank) EquivalentAdmittance() complex128 {
	return complex(0, cb.B*cb.Configuration.SusceptanceFactor())
}

func (cb CapacitorBank) validate() error {
	if math.IsNaN(cb.B) || math.IsInf(cb.B, 0) {
		return fmt.Errorf("%w: bank at bus %d has non-finite susceptance", ErrInvalidParameter, cb.Bus)
	}
	if cb.Configuration < Star || cb.Configuration > Delta {
		return fmt.Errorf("%w: bank at bus %d has configuration %s", ErrInvalidParameter, cb.Bus, cb.Configuration)
	}
	return nil
}

func (cb CapacitorBank) Stamp(s AdmittanceStamper) {
	s.AddAdmittance(cb.Bus, cb.Bus, cb.EquivalentAdmittance())
}
