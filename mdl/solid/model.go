// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// Drainage selects which of the five drainage variants governs an
// integration point.
type Drainage int

const (
	Drained Drainage = iota
	UndrainedA
	UndrainedB
	UndrainedC
	NonPorous
)

func (d Drainage) String() string {
	switch d {
	case Drained:
		return "drained"
	case UndrainedA:
		return "undrained-a"
	case UndrainedB:
		return "undrained-b"
	case UndrainedC:
		return "undrained-c"
	case NonPorous:
		return "non-porous"
	}
	return "unknown"
}

// Model is the capability set every constitutive law implements:
// elastic tangent, return mapping (inside Update), and the drainage
// mode. Dispatch happens once per element (not per integration point) by
// the caller holding a concrete Model value; this interface exists so
// ele/solid can be written once against either LinearElastic or
// MohrCoulomb.
type Model interface {
	// Tangent returns the plane-strain material tangent (3x3, ordered
	// exx,eyy,gxy -> sxx,syy,sxy) consistent with the current state. The
	// elastic (continuum) tangent is used even past yield -- a
	// modified-Newton strategy relying on the arc-length corrector's
	// iteration count rather than tangent consistency for convergence.
	Tangent(s *State) [3][3]float64

	// Update advances s in place with strain increment deps (exx,eyy,gxy)
	// and dEpsZZ (out-of-plane normal strain increment, zero for plane
	// strain proper but plumbed through for generality), performing
	// elastic trial + return mapping. Callers that must not commit a
	// trial iterate until a step converges call Update on a State.Clone()
	// and only copy the result back once the arc-length corrector has
	// converged.
	Update(s *State, deps [3]float64, dEpsZZ float64) error

	// Drainage reports this model instance's drainage variant.
	Drainage() Drainage
}

// New constructs a Model from a model name ("linear-elastic" or
// "mohr-coulomb"), a drainage mode, and a parameter list.
func New(modelName string, drainage Drainage, prms fun.Prms) (Model, error) {
	switch modelName {
	case "linear-elastic":
		return newLinearElastic(drainage, prms)
	case "mohr-coulomb":
		return newMohrCoulomb(drainage, prms)
	}
	return nil, chk.Err("solid: unknown model name %q", modelName)
}

// prm looks up a named parameter, returning ok=false if absent.
func prm(prms fun.Prms, name string) (float64, bool) {
	for _, p := range prms {
		if p.N == name {
			return p.V, true
		}
	}
	return 0, false
}

// lameFromEν returns the Lame parameters (lambda, mu=G) for isotropic
// plane-strain elasticity from Young's modulus and Poisson's ratio.
func lameFromEν(E, ν float64) (lambda, G float64) {
	G = E / (2 * (1 + ν))
	lambda = E * ν / ((1 + ν) * (1 - 2*ν))
	return
}

// bulkFromEν returns the bulk modulus K from (E,ν).
func bulkFromEν(E, ν float64) float64 {
	return E / (3 * (1 - 2*ν))
}

// planeStrainD builds the 3x3 isotropic plane-strain tangent from Lame
// parameters.
func planeStrainD(lambda, G float64) [3][3]float64 {
	var D [3][3]float64
	D[0][0] = lambda + 2*G
	D[0][1] = lambda
	D[1][0] = lambda
	D[1][1] = lambda + 2*G
	D[2][2] = G
	return D
}

// mulD applies a 3x3 tangent to a strain increment, returning the
// in-plane stress increment (dsxx,dsyy,dsxy).
func mulD(D [3][3]float64, deps [3]float64) [3]float64 {
	var ds [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			ds[i] += D[i][j] * deps[j]
		}
	}
	return ds
}
