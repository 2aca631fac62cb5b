package analysis

import (
	"fmt"
	"math/cmplx"

	"github.com/edp1096/toy-powerflow/pkg/network"
)

// BranchFlow is the complex power entering a branch at each end.
type BranchFlow struct {
	Branch network.Branch
	From   complex128 // S leaving the From bus into the branch
	To     complex128 // S leaving the To bus into the branch
	Loss   complex128 // From + To
}

func busPhasors(model *network.SystemModel) ([]complex128, error) {
	buses := model.Buses()
	v := make([]complex128, len(buses))
	for i := range buses {
		mag, err := buses[i].Require(network.VoltageMagnitude)
		if err != nil {
			return nil, fmt.Errorf("bus %d: %w", i+1, err)
		}
		th, err := buses[i].Require(network.VoltagePhase)
		if err != nil {
			return nil, fmt.Errorf("bus %d: %w", i+1, err)
		}
		v[i] = cmplx.Rect(mag, th)
	}
	return v, nil
}

// BusInjections returns S_i = V_i·conj(Σ_k Y_ik·V_k) for every bus, using
// the magnitudes and phases stored on the buses.
func BusInjections(model *network.SystemModel) ([]complex128, error) {
	v, err := busPhasors(model)
	if err != nil {
		return nil, err
	}
	current := make([]complex128, len(v))
	for _, e := range model.AdmittanceMatrix().Entries() {
		current[e.Row-1] += e.Value * v[e.Col-1]
	}
	s := make([]complex128, len(v))
	for i := range v {
		s[i] = v[i] * cmplx.Conj(current[i])
	}
	return s, nil
}

// BranchFlows returns the pi-model flows of every branch.
func BranchFlows(model *network.SystemModel) ([]BranchFlow, error) {
	v, err := busPhasors(model)
	if err != nil {
		return nil, err
	}
	branches := model.Branches()
	flows := make([]BranchFlow, len(branches))
	for n, br := range branches {
		vi, vk := v[br.From-1], v[br.To-1]
		y := br.SeriesAdmittance()
		half := br.ShuntAdmittance() / 2

		iFrom := y*(vi-vk) + vi*half
		iTo := y*(vk-vi) + vk*half
		f := BranchFlow{
			Branch: br,
			From:   vi * cmplx.Conj(iFrom),
			To:     vk * cmplx.Conj(iTo),
		}
		f.Loss = f.From + f.To
		flows[n] = f
	}
	return flows, nil
}
