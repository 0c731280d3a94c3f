package model

import "github.com/reactsim/reactsim/sim"

// Molecule is the member type of composed species declared in model files.
type Molecule struct {
	// Created is the time the molecule entered its state.
	Created float64
	// Generation counts how often a transformee reaction reproduced it.
	Generation int
}

// Factory stamps creation time and advances the generation on Modify.
type Factory struct{}

var _ sim.MoleculeFactory[Molecule] = Factory{}

func (Factory) Initialize(m *Molecule, time float64) {
	*m = Molecule{Created: time}
}

func (Factory) Modify(m *Molecule, _ float64) {
	m.Generation++
}
