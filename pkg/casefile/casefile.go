// Package casefile reads and writes network cases as YAML documents.
package casefile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

var ErrInvalidCase = errors.New("invalid case file")

type Case struct {
	Title          string          `yaml:"title,omitempty"`
	MaxBuses       int             `yaml:"max_buses"`
	Buses          []Bus           `yaml:"buses"`
	Branches       []Branch        `yaml:"branches,omitempty"`
	CapacitorBanks []CapacitorBank `yaml:"capacitor_banks,omitempty"`
}

type Bus struct {
	ID               int      `yaml:"id"`
	Type             string   `yaml:"type"`
	VoltageMagnitude *float64 `yaml:"voltage_magnitude,omitempty"`
	VoltagePhase     *float64 `yaml:"voltage_phase,omitempty"`
	ActivePower      *float64 `yaml:"active_power,omitempty"`
	ReactivePower    *float64 `yaml:"reactive_power,omitempty"`
}

type Branch struct {
	Type string  `yaml:"type"`
	From int     `yaml:"from"`
	To   int     `yaml:"to"`
	R    float64 `yaml:"r"`
	X    float64 `yaml:"x"`
	G    float64 `yaml:"g,omitempty"`
	B    float64 `yaml:"b,omitempty"`
}

type CapacitorBank struct {
	Bus           int     `yaml:"bus"`
	B             float64 `yaml:"b"`
	Configuration string  `yaml:"configuration"`
}

// Validate checks the document shape. Electrical validity is left to the
// model, which rejects bad topology when the case is loaded.
func (c *Case) Validate() error {
	if c.MaxBuses < 0 {
		return fmt.Errorf("%w: max_buses %d", ErrInvalidCase, c.MaxBuses)
	}
	for i, b := range c.Buses {
		if b.ID != i+1 {
			return fmt.Errorf("%w: bus %d listed at position %d", ErrInvalidCase, b.ID, i+1)
		}
	}
	return nil
}

// FromDescription converts a model description into its YAML form.
func FromDescription(d network.Description) Case {
	c := Case{
		Title:    d.Title,
		MaxBuses: d.MaxBuses,
		Buses:    make([]Bus, len(d.Buses)),
	}
	for i, bd := range d.Buses {
		c.Buses[i] = Bus{
			ID:               i + 1,
			Type:             bd.Type.String(),
			VoltageMagnitude: bd.VoltageMagnitude,
			VoltagePhase:     bd.VoltagePhase,
			ActivePower:      bd.ActivePower,
			ReactivePower:    bd.ReactivePower,
		}
	}
	for _, br := range d.Branches {
		c.Branches = append(c.Branches, Branch{
			Type: br.Type.String(), From: br.From, To: br.To,
			R: br.R, X: br.X, G: br.G, B: br.B,
		})
	}
	for _, cb := range d.CapacitorBanks {
		c.CapacitorBanks = append(c.CapacitorBanks, CapacitorBank{
			Bus: cb.Bus, B: cb.B, Configuration: cb.Configuration.String(),
		})
	}
	return c
}

// Description converts the case back into a model description.
func (c *Case) Description() (network.Description, error) {
	d := network.Description{
		Title:    c.Title,
		MaxBuses: c.MaxBuses,
		Buses:    make([]network.BusDescription, len(c.Buses)),
	}
	if d.MaxBuses == 0 {
		d.MaxBuses = len(c.Buses)
	}
	for i, b := range c.Buses {
		t, err := network.ParseBusType(b.Type)
		if err != nil {
			return d, fmt.Errorf("bus %d: %w", b.ID, err)
		}
		d.Buses[i] = network.BusDescription{
			Type:             t,
			VoltageMagnitude: b.VoltageMagnitude,
			VoltagePhase:     b.VoltagePhase,
			ActivePower:      b.ActivePower,
			ReactivePower:    b.ReactivePower,
		}
	}
	for _, br := range c.Branches {
		t, err := network.ParseBranchType(br.Type)
		if err != nil {
			return d, fmt.Errorf("branch %d-%d: %w", br.From, br.To, err)
		}
		d.Branches = append(d.Branches, network.Branch{
			Type: t, From: br.From, To: br.To,
			R: br.R, X: br.X, G: br.G, B: br.B,
		})
	}
	for _, cb := range c.CapacitorBanks {
		cfg, err := network.ParseConfiguration(cb.Configuration)
		if err != nil {
			return d, fmt.Errorf("capacitor bank at bus %d: %w", cb.Bus, err)
		}
		d.CapacitorBanks = append(d.CapacitorBanks, network.CapacitorBank{Bus: cb.Bus, B: cb.B, Configuration: cfg})
	}
	return d, nil
}

func Encode(w io.Writer, d network.Description) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	c := FromDescription(d)
	if err := enc.Encode(&c); err != nil {
		return fmt.Errorf("encoding case: %w", err)
	}
	return enc.Close()
}

// Decode reads one YAML case. Unknown keys are rejected.
func Decode(r io.Reader) (network.Description, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Case
	if err := dec.Decode(&c); err != nil {
		return network.Description{}, fmt.Errorf("%w: %v", ErrInvalidCase, err)
	}
	if err := c.Validate(); err != nil {
		return network.Description{}, err
	}
	return c.Description()
}

// Load reads a case file and builds its model.
func Load(path string, opts ...network.Option) (*network.SystemModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return network.FromDescription(d, opts...)
}

func Save(path string, model *network.SystemModel) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, model.Describe()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
