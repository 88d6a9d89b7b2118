// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"github.com/dpedroso/geoslope/mdl/porous"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// undrainedNu is the near-incompressible Poisson's ratio the
// UndrainedB/C variants approach by construction.
const undrainedNu = 0.495

// LinearElastic implements isotropic plane-strain elasticity, driven by
// (E,nu) for Drained/UndrainedA/NonPorous or (E',nu') effective
// parameters for the undrained variants.
type LinearElastic struct {
	E, Nu    float64
	drainage Drainage
	lambda   float64
	G        float64
	K        float64
	Kw       float64 // fluid bulk modulus penalty (UndrainedA/B only)
}

func newLinearElastic(drainage Drainage, prms fun.Prms) (*LinearElastic, error) {
	E, ok := prm(prms, "E")
	if !ok {
		return nil, chk.Err("solid: linear-elastic model requires parameter %q", "E")
	}
	nu, ok := prm(prms, "nu")
	if !ok {
		return nil, chk.Err("solid: linear-elastic model requires parameter %q", "nu")
	}
	if err := checkPoisson(drainage, nu); err != nil {
		return nil, err
	}
	o := &LinearElastic{E: E, Nu: nu, drainage: drainage}
	o.lambda, o.G = lameFromEν(E, nu)
	o.K = bulkFromEν(E, nu)
	if drainage == UndrainedA || drainage == UndrainedB {
		o.Kw = porous.FluidBulkModulus(E, nu, undrainedNu)
	}
	return o, nil
}

// checkPoisson enforces the Poisson-ratio invariants: 0<=nu<0.5
// for drained/UndrainedA, and UndrainedB/C are expected near-incompressible
// (nu -> 0.495) by construction -- callers are responsible for passing that
// value in; this rejects nu outside [0,0.5) for every variant, and nu<0.45
// for UndrainedB/C.
func checkPoisson(drainage Drainage, nu float64) error {
	if nu < 0 || nu >= 0.5 {
		return chk.Err("solid: Poisson ratio %g out of range [0,0.5) for drainage %s", nu, drainage)
	}
	if (drainage == UndrainedB || drainage == UndrainedC) && nu < 0.45 {
		return chk.Err("solid: drainage %s requires a near-incompressible nu (>=0.45), got %g", drainage, nu)
	}
	return nil
}

func (o *LinearElastic) Drainage() Drainage { return o.drainage }

func (o *LinearElastic) Tangent(s *State) [3][3]float64 {
	D := planeStrainD(o.lambda, o.G)
	if o.Kw > 0 {
		D[0][0] += o.Kw
		D[0][1] += o.Kw
		D[1][0] += o.Kw
		D[1][1] += o.Kw
	}
	return D
}

func (o *LinearElastic) Update(s *State, deps [3]float64, dEpsZZ float64) error {
	dVol := deps[0] + deps[1] + dEpsZZ
	var dExcess float64
	if o.Kw > 0 {
		dExcess = porous.ExcessIncrement(o.Kw, dVol)
	}
	D := planeStrainD(o.lambda, o.G)
	ds := mulD(D, deps)
	eff := s.Effective()
	pTot := s.PWPSteady + s.PWPExcess + dExcess
	s.Sig = Stress{
		Sxx: eff.Sxx + ds[0] + pTot,
		Syy: eff.Syy + ds[1] + pTot,
		Szz: eff.Szz + o.lambda*(deps[0]+deps[1]) + (o.lambda+2*o.G)*dEpsZZ + pTot,
		Sxy: eff.Sxy + ds[2],
	}
	s.PWPExcess += dExcess
	s.Yielded = false
	return nil
}
