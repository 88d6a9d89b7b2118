// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"math"

	"github.com/dpedroso/geoslope/fem"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/solid"

	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/la"
)

// system is the generalized residual/tangent source the arc-length
// stepper in arclength.go drives to zero. Load-controlled phases and the
// strength-reduction analysis share the stepper; lambda is whatever path
// parameter the system advances -- the load fraction for plasticSystem,
// the reduction factor for srmSystem.
type system interface {
	// evaluate returns the tangent K, the residual r at displacement u
	// (accumulated since the phase's base state) and path parameter
	// lambda, the load
	// direction q=d(r)/d(lambda), and the trial per-Gauss-point states.
	evaluate(u []float64, lambda float64) (K *la.Triplet, r, q []float64, trial fem.ElementStates, err error)
	referenceMagnitude() float64
	baseStates() fem.ElementStates
}

// plasticSystem drives lambda in [0,MaxLoadFraction], scaling a fixed
// incremental external-force vector against a fixed material set. The
// residual is incremental: the base state is taken as equilibrated, so
// r = lambda*dFext - (fint(u) - fint(0)). This keeps a nonzero geostatic
// prestress from re-entering the balance as a spurious out-of-balance
// force at lambda=0.
type plasticSystem struct {
	asm   *fem.Assembler
	base  fem.ElementStates
	dFext []float64 // this phase's own incremental external action
	fint0 []float64 // internal force of the base state (zero increment)
}

func newPlasticSystem(asm *fem.Assembler, base fem.ElementStates, dFext []float64) (*plasticSystem, error) {
	zero := make([]float64, asm.Dom.NDof)
	_, fint0, _, err := asm.Assemble(base, zero)
	if err != nil {
		return nil, err
	}
	return &plasticSystem{asm: asm, base: base, dFext: dFext, fint0: fint0}, nil
}

func (s *plasticSystem) evaluate(u []float64, lambda float64) (*la.Triplet, []float64, []float64, fem.ElementStates, error) {
	K, fint, trial, err := s.asm.Assemble(s.base, u)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	r := make([]float64, len(fint))
	for i := range r {
		r[i] = lambda*s.dFext[i] - (fint[i] - s.fint0[i])
	}
	s.asm.ZeroPinned(r)
	q := append([]float64(nil), s.dFext...)
	s.asm.ZeroPinned(q)
	return K, r, q, trial, nil
}

func (s *plasticSystem) referenceMagnitude() float64 { return norm(s.dFext) }

func (s *plasticSystem) baseStates() fem.ElementStates { return s.base }

// srmFiniteDiffH is the reduction-factor perturbation used to estimate
// d(fint)/d(lambda) by finite differences (there is no closed-form
// derivative of the Mohr-Coulomb return map with respect to a strength
// scaling).
const srmFiniteDiffH = 1e-4

// srmSystem drives lambda = SigmaMsf-1 upward against a fixed external
// action: the internal force already in equilibrium with the phase's
// starting state at unreduced strength. Reducing strength makes the
// already-applied stress violate the shrunken yield surface even at zero
// additional strain, and the resulting return-mapping correction is
// exactly the residual the corrector drives to zero.
type srmSystem struct {
	dom       *fem.Domain
	active    fem.ActiveSet
	materials map[int]*inp.Material // element ID -> resolved material
	base      fem.ElementStates
	fext0     []float64
	ref       float64
	pinned    map[int]bool
}

func newSRMSystem(dom *fem.Domain, active fem.ActiveSet, materials map[int]*inp.Material, base fem.ElementStates, fext0 []float64, pinned map[int]bool) *srmSystem {
	return &srmSystem{dom: dom, active: active, materials: materials, base: base, fext0: fext0, ref: norm(fext0), pinned: pinned}
}

func (s *srmSystem) referenceMagnitude() float64 { return s.ref }

func (s *srmSystem) baseStates() fem.ElementStates { return s.base }

func (s *srmSystem) zeroPinned(v []float64) {
	for eq := range s.pinned {
		v[eq] = 0
	}
}

// scaledModels rebuilds every distinct material's model with c, phi (and
// psi, and su for the undrained-shear variants) divided by sigmaMsf.
// Materials with no strength parameters (linear-elastic) are left
// unscaled -- they never drive the failure mechanism.
func (s *srmSystem) scaledModels(sigmaMsf float64) (map[int]solid.Model, error) {
	cache := make(map[string]solid.Model, len(s.materials))
	out := make(map[int]solid.Model, len(s.materials))
	for eid, mat := range s.materials {
		m, ok := cache[mat.Name]
		if !ok {
			var err error
			m, err = scaledModel(mat, sigmaMsf)
			if err != nil {
				return nil, err
			}
			cache[mat.Name] = m
		}
		out[eid] = m
	}
	return out, nil
}

func (s *srmSystem) assemblerAt(sigmaMsf float64) (*fem.Assembler, error) {
	models, err := s.scaledModels(sigmaMsf)
	if err != nil {
		return nil, err
	}
	return fem.NewAssembler(s.dom, s.active, models)
}

// evaluate treats lambda as the continuation's own 0-based path
// parameter (matching plasticSystem and the arc-length stepper's
// convention of starting at 0); SigmaMsf itself is 1+lambda, since
// strength reduction starts from the unreduced material (SigmaMsf=1).
func (s *srmSystem) evaluate(u []float64, lambda float64) (*la.Triplet, []float64, []float64, fem.ElementStates, error) {
	sigmaMsf := 1 + lambda
	asm, err := s.assemblerAt(sigmaMsf)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	K, fint, trial, err := asm.Assemble(s.base, u)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	r := make([]float64, len(fint))
	for i := range r {
		r[i] = s.fext0[i] - fint[i]
	}
	s.zeroPinned(r)

	asmH, err := s.assemblerAt(sigmaMsf + srmFiniteDiffH)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	_, fintH, _, err := asmH.Assemble(s.base, u)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	q := make([]float64, len(fint))
	for i := range q {
		q[i] = -(fintH[i] - fint[i]) / srmFiniteDiffH
	}
	s.zeroPinned(q)
	return K, r, q, trial, nil
}

// scaledModel divides mat's strength parameters by sigmaMsf and
// reconstructs its solid.Model: c and su scale directly, phi and psi
// through their tangents.
func scaledModel(mat *inp.Material, sigmaMsf float64) (solid.Model, error) {
	drainage, err := inp.ParseDrainage(mat.Drainage)
	if err != nil {
		return nil, err
	}
	if mat.Model != "mohr-coulomb" {
		return mat.NewModel()
	}
	prms := make(fun.Prms, len(mat.Prms))
	copy(prms, mat.Prms)
	for i, p := range prms {
		switch p.N {
		case "c", "su":
			np := *p
			np.V = p.V / sigmaMsf
			prms[i] = &np
		case "phi", "psi":
			np := *p
			np.V = math.Atan(math.Tan(p.V*math.Pi/180)/sigmaMsf) * 180 / math.Pi
			prms[i] = &np
		}
	}
	return solid.New(mat.Model, drainage, prms)
}
