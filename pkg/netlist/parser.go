package netlist

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

var ErrSyntax = errors.New("netlist syntax error")

var unitMap = map[string]float64{
	"T":   1e12,  // tera
	"G":   1e9,   // giga
	"meg": 1e6,   // mega
	"K":   1e3,   // kilo
	"k":   1e3,   // kilo
	"m":   1e-3,  // milli
	"M":   1e-3,  // milli
	"u":   1e-6,  // micro
	"n":   1e-9,  // nano
	"p":   1e-12, // pico
	"f":   1e-15, // femto
}

var (
	valueRe = regexp.MustCompile(`^([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)(meg|[TGMKkmunpf])?$`)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Parse reads a case in netlist form. The first line is the title. Lines
// starting with '*' are comments, a leading '+' continues the previous line.
//
//   - three-bus example
//     .maxbuses 3
//     B1 slack v=1 th=0.6435
//     B2 pv v=1.02 p=3
//     B3 pq p=1.5 q=0.8
//     L12 1 2 r=0.05 x=0.1 b=0
//     T23 2 3 r=20m x=20m g=0 b=0
//     C3 3 b=70m config=star
//     .end
func Parse(input string) (network.Description, error) {
	scanner := bufio.NewScanner(strings.NewReader(input))
	d := network.Description{}

	if scanner.Scan() {
		d.Title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "*"))
	}

	var currentLine string
	lineNo, startLine := 1, 0
	ended := false
	flush := func() error {
		if currentLine == "" {
			return nil
		}
		line := currentLine
		currentLine = ""
		if ended {
			return fmt.Errorf("%w: line %d: content after .end", ErrSyntax, startLine)
		}
		end, err := parseLine(&d, line)
		if err != nil {
			return fmt.Errorf("line %d: %w", startLine, err)
		}
		ended = end
		return nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if idx := strings.Index(line, "*"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "+") {
			if currentLine == "" {
				return d, fmt.Errorf("%w: line %d: continuation without a statement", ErrSyntax, lineNo)
			}
			currentLine += " " + strings.TrimSpace(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return d, err
		}
		currentLine = line
		startLine = lineNo
	}
	if err := scanner.Err(); err != nil {
		return d, err
	}
	if err := flush(); err != nil {
		return d, err
	}

	if d.MaxBuses == 0 {
		d.MaxBuses = len(d.Buses)
	}
	return d, nil
}

// parseLine handles one logical statement and reports whether it was .end.
func parseLine(d *network.Description, line string) (bool, error) {
	line = spaceRe.ReplaceAllString(line, " ")
	if strings.HasPrefix(line, ".") {
		return parseDotOperator(d, line)
	}
	return false, parseElement(d, line)
}

func parseDotOperator(d *network.Description, line string) (bool, error) {
	fields := strings.Fields(line)

	switch strings.ToLower(fields[0]) {
	case ".title":
		d.Title = strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
	case ".maxbuses":
		if len(fields) != 2 {
			return false, fmt.Errorf("%w: .maxbuses takes one value", ErrSyntax)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return false, fmt.Errorf("%w: invalid .maxbuses: %v", ErrSyntax, err)
		}
		d.MaxBuses = n
	case ".end":
		return true, nil
	default:
		return false, fmt.Errorf("%w: unsupported control %s", ErrSyntax, fields[0])
	}
	return false, nil
}

func parseElement(d *network.Description, line string) error {
	fields := strings.Fields(line)
	name := fields[0]

	switch strings.ToUpper(name[:1]) {
	case "B":
		return parseBus(d, name, fields[1:])
	case "L":
		return parseBranch(d, network.Line, name, fields[1:])
	case "T":
		return parseBranch(d, network.Transformer, name, fields[1:])
	case "C":
		return parseCapacitorBank(d, name, fields[1:])
	}
	return fmt.Errorf("%w: unknown element %s", ErrSyntax, name)
}

// parseBus reads "B<id> <type> [v=..] [th=..] [p=..] [q=..]". Buses must be
// listed in id order starting at 1.
func parseBus(d *network.Description, name string, fields []string) error {
	id, err := strconv.Atoi(name[1:])
	if err != nil {
		return fmt.Errorf("%w: bus name %s", ErrSyntax, name)
	}
	if id != len(d.Buses)+1 {
		return fmt.Errorf("%w: bus %s out of order, expected B%d", ErrSyntax, name, len(d.Buses)+1)
	}
	if len(fields) < 1 {
		return fmt.Errorf("%w: bus %s needs a type", ErrSyntax, name)
	}
	busType, err := network.ParseBusType(fields[0])
	if err != nil {
		return err
	}

	params, err := parseParams(name, fields[1:])
	if err != nil {
		return err
	}
	bd := network.BusDescription{Type: busType}
	for key, value := range params {
		q, ok := busKeys[key]
		if !ok {
			return fmt.Errorf("%w: bus %s: unknown parameter %s", ErrSyntax, name, key)
		}
		bd.SetValue(q, value)
	}
	d.Buses = append(d.Buses, bd)
	return nil
}

var busKeys = map[string]network.Quantity{
	"v":  network.VoltageMagnitude,
	"th": network.VoltagePhase,
	"p":  network.ActivePower,
	"q":  network.ReactivePower,
}

func parseBranch(d *network.Description, t network.BranchType, name string, fields []string) error {
	if len(fields) < 2 {
		return fmt.Errorf("%w: %s needs two bus ids", ErrSyntax, name)
	}
	from, err1 := strconv.Atoi(fields[0])
	to, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return fmt.Errorf("%w: %s: invalid bus ids %s %s", ErrSyntax, name, fields[0], fields[1])
	}
	params, err := parseParams(name, fields[2:])
	if err != nil {
		return err
	}

	br := network.Branch{Type: t, From: from, To: to}
	allowed := map[string]*float64{"r": &br.R, "x": &br.X, "b": &br.B}
	if t == network.Transformer {
		allowed["g"] = &br.G
	}
	for key, value := range params {
		dst, ok := allowed[key]
		if !ok {
			return fmt.Errorf("%w: %s: unknown parameter %s", ErrSyntax, name, key)
		}
		*dst = value
	}
	d.Branches = append(d.Branches, br)
	return nil
}

func parseCapacitorBank(d *network.Description, name string, fields []string) error {
	if len(fields) < 1 {
		return fmt.Errorf("%w: %s needs a bus id", ErrSyntax, name)
	}
	bus, err := strconv.Atoi(fields[0])
	if err != nil {
		return fmt.Errorf("%w: %s: invalid bus id %s", ErrSyntax, name, fields[0])
	}

	cb := network.CapacitorBank{Bus: bus, Configuration: network.GroundedStar}
	for _, field := range fields[1:] {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return fmt.Errorf("%w: %s: expected key=value, got %s", ErrSyntax, name, field)
		}
		switch strings.ToLower(key) {
		case "b":
			if cb.B, err = ParseValue(val); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		case "config":
			if cb.Configuration, err = network.ParseConfiguration(val); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		default:
			return fmt.Errorf("%w: %s: unknown parameter %s", ErrSyntax, name, key)
		}
	}
	d.CapacitorBanks = append(d.CapacitorBanks, cb)
	return nil
}

func parseParams(name string, fields []string) (map[string]float64, error) {
	params := make(map[string]float64, len(fields))
	for _, field := range fields {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %s: expected key=value, got %s", ErrSyntax, name, field)
		}
		key = strings.ToLower(key)
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate parameter %s", ErrSyntax, name, key)
		}
		v, err := ParseValue(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		params[key] = v
	}
	return params, nil
}

// ParseValue reads a number with an optional engineering suffix (20m, 1.5k).
func ParseValue(val string) (float64, error) {
	matches := valueRe.FindStringSubmatch(strings.TrimSpace(val))
	if matches == nil {
		return 0, fmt.Errorf("%w: invalid value format: %s", ErrSyntax, val)
	}

	num, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if matches[2] != "" {
		num *= unitMap[matches[2]]
	}
	return num, nil
}
