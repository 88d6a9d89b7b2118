// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package phase implements the phase driver: the arc-length continuation
// loop, K0/Gravity/Plastic/SafetyAnalysis initialization, the
// strength-reduction outer loop, and phase-tree bookkeeping.
package phase

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// factorization wraps one direct sparse factorization of the tangent,
// shared by the two bordered-system solves of a single Newton iteration:
// the hot-path linear solve is unchanged -- two solves against the same
// factorized K instead of one augmented (n+1)x(n+1) solve.
type factorization struct {
	solver la.SparseSolver
}

// factorize performs a direct sparse factorization of K. The underlying
// solver aborts via panic on breakdown; that is recovered here and
// surfaced as an error, so a singular tangent reads as non-convergence
// upstream rather than killing the run.
func factorize(K *la.Triplet) (fz *factorization, err error) {
	defer func() {
		if r := recover(); r != nil {
			fz = nil
			err = chk.Err("phase: tangent factorization failed: %v", r)
		}
	}()
	solver := la.NewSparseSolver("umfpack")
	solver.Init(K, la.NewSparseConfig(nil))
	solver.Fact()
	return &factorization{solver: solver}, nil
}

// solve returns x solving K*x = rhs against the cached factorization,
// recovering solver panics the same way factorize does.
func (f *factorization) solve(rhs []float64) (x []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			x = nil
			err = chk.Err("phase: linear solve failed (possible arc-length singularity): %v", r)
		}
	}()
	x = make([]float64, len(rhs))
	f.solver.Solve(x, rhs, false)
	return x, nil
}

func (f *factorization) free() {
	f.solver.Free()
}
