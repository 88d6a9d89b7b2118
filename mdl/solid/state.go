// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solid implements the constitutive models (linear-elastic and
// Mohr-Coulomb elasto-plastic) used at each integration point. All
// quantities use a tension-positive sign convention.
package solid

// Stress holds the plane-strain stress tensor components at an
// integration point: (sxx,syy,szz,sxy). szz is carried independently of
// the in-plane components for effective-stress bookkeeping.
type Stress struct {
	Sxx, Syy, Szz, Sxy float64
}

// Add returns the component-wise sum of two stresses.
func (s Stress) Add(o Stress) Stress {
	return Stress{s.Sxx + o.Sxx, s.Syy + o.Syy, s.Szz + o.Szz, s.Sxy + o.Sxy}
}

// Sub returns the component-wise difference of two stresses.
func (s Stress) Sub(o Stress) Stress {
	return Stress{s.Sxx - o.Sxx, s.Syy - o.Syy, s.Szz - o.Szz, s.Sxy - o.Sxy}
}

// Scale multiplies every component by f.
func (s Stress) Scale(f float64) Stress {
	return Stress{s.Sxx * f, s.Syy * f, s.Szz * f, s.Sxy * f}
}

// State holds the per-integration-point state carried between steps and
// phases: accumulated stress, accumulated plastic strain (scalar norm of
// the plastic-strain increment history), the excess pore-water pressure,
// and whether the point is currently yielding.
type State struct {
	Sig       Stress  // total stress
	PWPSteady float64 // steady (hydrostatic) pore-water pressure
	PWPExcess float64 // excess pore-water pressure
	EpsPAcc   float64 // accumulated plastic strain (norm)
	Yielded   bool    // true if the last update required plastic correction
}

// PWPTotal returns the total pore-water pressure (steady + excess).
func (s State) PWPTotal() float64 {
	return s.PWPSteady + s.PWPExcess
}

// Effective returns the effective stress: total stress minus total PWP on
// the in-plane normal components (tension-positive, so PWP -- always
// compressive on the skeleton -- subtracts from the tension-positive
// total normal stress).
func (s State) Effective() Stress {
	p := s.PWPTotal()
	return Stress{
		Sxx: s.Sig.Sxx - p,
		Syy: s.Sig.Syy - p,
		Szz: s.Sig.Szz - p,
		Sxy: s.Sig.Sxy,
	}
}

// Clone returns a deep copy (State has no pointer fields, but Clone keeps
// call sites explicit about copy-vs-alias intent).
func (s State) Clone() State {
	return s
}
