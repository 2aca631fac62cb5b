package network

import (
	"sort"
)

// AdmittanceStamper receives element contributions during a rebuild.
// Indices are 1-based bus ids.
type AdmittanceStamper interface {
	AddAdmittance(row, col int, y complex128)
}

type AdmittanceEntry struct {
	Row   int
	Col   int
	Value complex128
}

// AdmittanceMatrix is an immutable nodal admittance matrix. Entries are
// stored row-major and only structurally nonzero positions are kept.
type AdmittanceMatrix struct {
	size    int
	entries []AdmittanceEntry
	index   map[[2]int]int
}

func (m *AdmittanceMatrix) Size() int { return m.size }

// Entries returns a copy of the stored entries in row-major order.
func (m *AdmittanceMatrix) Entries() []AdmittanceEntry {
	out := make([]AdmittanceEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// At returns Y[row][col], zero for positions without an element.
func (m *AdmittanceMatrix) At(row, col int) complex128 {
	if i, ok := m.index[[2]int{row, col}]; ok {
		return m.entries[i].Value
	}
	return 0
}

// Dense returns the matrix as a 0-based square slice.
func (m *AdmittanceMatrix) Dense() [][]complex128 {
	out := make([][]complex128, m.size)
	for i := range out {
		out[i] = make([]complex128, m.size)
	}
	for _, e := range m.entries {
		out[e.Row-1][e.Col-1] = e.Value
	}
	return out
}

func (m *AdmittanceMatrix) Equal(o *AdmittanceMatrix) bool {
	if m.size != o.size || len(m.entries) != len(o.entries) {
		return false
	}
	for i := range m.entries {
		if m.entries[i] != o.entries[i] {
			return false
		}
	}
	return true
}

type admittanceBuilder struct {
	size   int
	values map[[2]int]complex128
}

func newAdmittanceBuilder(size int) *admittanceBuilder {
	return &admittanceBuilder{size: size, values: make(map[[2]int]complex128)}
}

func (b *admittanceBuilder) AddAdmittance(row, col int, y complex128) {
	b.values[[2]int{row, col}] += y
}

func (b *admittanceBuilder) build() *AdmittanceMatrix {
	m := &AdmittanceMatrix{
		size:    b.size,
		entries: make([]AdmittanceEntry, 0, len(b.values)),
		index:   make(map[[2]int]int, len(b.values)),
	}
	for key, v := range b.values {
		m.entries = append(m.entries, AdmittanceEntry{Row: key[0], Col: key[1], Value: v})
	}
	sort.Slice(m.entries, func(i, j int) bool {
		if m.entries[i].Row != m.entries[j].Row {
			return m.entries[i].Row < m.entries[j].Row
		}
		return m.entries[i].Col < m.entries[j].Col
	})
	for i, e := range m.entries {
		m.index[[2]int{e.Row, e.Col}] = i
	}
	return m
}

// buildAdmittance stamps every element in canonical order: branches by
// connection, then banks by bus.
func buildAdmittance(size int, branches []Branch, banks []CapacitorBank) *AdmittanceMatrix {
	brs := make([]Branch, len(branches))
	copy(brs, branches)
	sortBranches(brs)

	cbs := make([]CapacitorBank, len(banks))
	copy(cbs, banks)
	sortBanks(cbs)

	b := newAdmittanceBuilder(size)
	for _, br := range brs {
		br.Stamp(b)
	}
	for _, cb := range cbs {
		cb.Stamp(b)
	}
	return b.build()
}
