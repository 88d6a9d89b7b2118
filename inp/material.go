// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"math"

	"github.com/dpedroso/geoslope/mdl/solid"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// Material holds one material's input data: the constitutive model and
// drainage names, the parameter list for that combination, and the unit
// weights.
type Material struct {
	Name     string    `json:"name"`
	Model    string    `json:"model"`    // "linear-elastic" or "mohr-coulomb"
	Drainage string    `json:"drainage"` // "drained","undrained-a","undrained-b","undrained-c","non-porous"
	Prms     fun.Prms  `json:"prms"`     // E (or E'), nu (or nu'), c, phi, psi, su as applicable
	GammaSat float64   `json:"gamma_sat"`
	GammaUns float64   `json:"gamma_unsat"`
	Gamma    float64   `json:"gamma"` // NonPorous only
	K0       *float64  `json:"k0"`    // optional; derived from phi or nu if absent
}

// ParseDrainage maps the input string to a solid.Drainage value.
func ParseDrainage(s string) (solid.Drainage, error) {
	switch s {
	case "drained", "":
		return solid.Drained, nil
	case "undrained-a":
		return solid.UndrainedA, nil
	case "undrained-b":
		return solid.UndrainedB, nil
	case "undrained-c":
		return solid.UndrainedC, nil
	case "non-porous":
		return solid.NonPorous, nil
	}
	return solid.Drained, chk.Err("inp: unknown drainage %q", s)
}

// Validate enforces the material invariants: gamma_unsat<=gamma_sat for
// porous materials, and the strength/elastic parameters required for the
// selected drainage are present.
func (m *Material) Validate() error {
	drainage, err := ParseDrainage(m.Drainage)
	if err != nil {
		return err
	}
	if drainage != solid.NonPorous {
		if m.GammaUns > m.GammaSat {
			return chk.Err("inp: material %q has gamma_unsat=%g > gamma_sat=%g", m.Name, m.GammaUns, m.GammaSat)
		}
	} else if m.Gamma <= 0 {
		return chk.Err("inp: non-porous material %q requires a positive gamma", m.Name)
	}
	// delegate parameter-completeness checks to the model constructor so
	// the two never drift apart.
	_, err = solid.New(m.Model, drainage, m.Prms)
	if err != nil {
		return chk.Err("inp: material %q: %v", m.Name, err)
	}
	return nil
}

// NewModel constructs the solid.Model for this material.
func (m *Material) NewModel() (solid.Model, error) {
	drainage, err := ParseDrainage(m.Drainage)
	if err != nil {
		return nil, err
	}
	return solid.New(m.Model, drainage, m.Prms)
}

// K0Value returns the lateral earth-pressure coefficient: the explicit
// K0 if given, else derived from phi (Jaky: 1-sin(phi)) if a friction
// angle is present, else from nu (nu/(1-nu)).
func (m *Material) K0Value() float64 {
	if m.K0 != nil {
		return *m.K0
	}
	if phi, ok := prmValue(m.Prms, "phi"); ok && phi > 0 {
		return 1 - math.Sin(phi*math.Pi/180)
	}
	if nu, ok := prmValue(m.Prms, "nu"); ok {
		return nu / (1 - nu)
	}
	return 0.5
}

func prmValue(prms fun.Prms, name string) (float64, bool) {
	for _, p := range prms {
		if p.N == name {
			return p.V, true
		}
	}
	return 0, false
}
