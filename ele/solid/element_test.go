// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"math"
	"testing"

	"github.com/dpedroso/geoslope/mdl/solid"
	"github.com/dpedroso/geoslope/shp"

	"github.com/cpmech/gosl/fun"
)

func refTriangle(tst *testing.T, dx, dy float64) *Element {
	x := [shp.NumNodes]float64{0 + dx, 1 + dx, 0 + dx, 0.5 + dx, 0.5 + dx, 0 + dx}
	y := [shp.NumNodes]float64{0 + dy, 0 + dy, 1 + dy, 0 + dy, 0.5 + dy, 0.5 + dy}
	m, err := solid.New("linear-elastic", solid.Drained, fun.Prms{{N: "E", V: 1e4}, {N: "nu", V: 0.3}})
	if err != nil {
		tst.Fatalf("failed to build model: %v", err)
	}
	e, err := New(1, x, y, m)
	if err != nil {
		tst.Fatalf("failed to build element: %v", err)
	}
	return e
}

// Test_patch_test imposes a linear displacement field u=a+bx+cy on the
// element's six nodes and checks the recovered strain is the exact
// constant (b1,c2,c1+b2) at every Gauss point for a linear-elastic
// material.
func Test_patch_test(tst *testing.T) {
	e := refTriangle(tst, 0, 0)
	b1, c1 := 0.002, 0.001 // ux = b1*x + c1*y
	b2, c2 := -0.0015, 0.003 // uy = b2*x + c2*y

	var disp [Ndof]float64
	for a := 0; a < shp.NumNodes; a++ {
		disp[2*a] = b1*e.x[a] + c1*e.y[a]
		disp[2*a+1] = b2*e.x[a] + c2*e.y[a]
	}

	wantExx, wantEyy, wantGxy := b1, c2, c1+b2
	var zero [shp.NumIps]solid.State
	_, _, trial, err := e.StiffnessAndInternal(zero, disp, 0)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	for ip := 0; ip < shp.NumIps; ip++ {
		deps := e.Strain(ip, disp)
		if math.Abs(deps[0]-wantExx) > 1e-10 || math.Abs(deps[1]-wantEyy) > 1e-10 || math.Abs(deps[2]-wantGxy) > 1e-10 {
			tst.Errorf("gp %d: expected strain (%g,%g,%g), got %v", ip, wantExx, wantEyy, wantGxy, deps)
		}
		if trial[ip].Yielded {
			tst.Errorf("gp %d: linear-elastic material should never report yielded=true", ip)
		}
	}
	// stress should be identical (constant) at every Gauss point.
	s0 := trial[0].Sig
	for ip := 1; ip < shp.NumIps; ip++ {
		if math.Abs(trial[ip].Sig.Sxx-s0.Sxx) > 1e-8 || math.Abs(trial[ip].Sig.Syy-s0.Syy) > 1e-8 {
			tst.Errorf("expected constant stress field across Gauss points, gp0=%v gp%d=%v", s0, ip, trial[ip].Sig)
		}
	}
}

// Test_rigid_body_invariance checks that translating the entire element
// by a constant vector leaves the B-matrices (and therefore stresses)
// unchanged.
func Test_rigid_body_invariance(tst *testing.T) {
	e0 := refTriangle(tst, 0, 0)
	e1 := refTriangle(tst, 7.5, -3.2)
	for ip := 0; ip < shp.NumIps; ip++ {
		same := true
		for r := 0; r < 3; r++ {
			for c := 0; c < Ndof; c++ {
				if math.Abs(e0.b[ip][r][c]-e1.b[ip][r][c]) > 1e-12 {
					same = false
				}
			}
		}
		if !same {
			tst.Errorf("gp %d: expected B-matrix to be translation-invariant", ip)
		}
		if math.Abs(e0.w[ip]-e1.w[ip]) > 1e-12 {
			tst.Errorf("gp %d: expected integration weight to be translation-invariant", ip)
		}
	}
}

// Test_single_element_extension checks a single T6 triangle against the
// analytical plane-strain solution: corners (0,0),(1,0),(0,1), linear-elastic
// E=1e4,nu=0.3, drained; full-fix (0,0); normal-fix (0,1) in x; fx=+100
// at (1,0). Expects ux at (1,0) within 1% of 100*(1-nu^2)/E, and equal
// sigma_xx at all three Gauss points.
func Test_single_element_extension(tst *testing.T) {
	e := refTriangle(tst, 0, 0)
	var zero [shp.NumIps]solid.State
	var d0 [Ndof]float64
	Ke, _, _, err := e.StiffnessAndInternal(zero, d0, 0)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	// dof layout: node0=(0,1) node1=(2,3) node2=(4,5) node3=(6,7) node4=(8,9) node5=(10,11)
	fixed := map[int]bool{0: true, 1: true, 4: true} // ux0,uy0, ux at node2=(0,1)
	var free []int
	for i := 0; i < Ndof; i++ {
		if !fixed[i] {
			free = append(free, i)
		}
	}
	var f [Ndof]float64
	f[2] = 100 // fx at node1=(1,0)

	n := len(free)
	A := make([][]float64, n)
	b := make([]float64, n)
	for i, gi := range free {
		A[i] = make([]float64, n)
		for j, gj := range free {
			A[i][j] = Ke[gi][gj]
		}
		b[i] = f[gi]
	}
	u := gaussianSolve(tst, A, b)

	var uFull [Ndof]float64
	for i, gi := range free {
		uFull[gi] = u[i]
	}
	uxAt1 := uFull[2]
	want := 100 * (1 - 0.3*0.3) / 1e4
	if math.Abs(uxAt1-want)/want > 0.01 {
		tst.Errorf("expected ux at (1,0) ~= %g (within 1%%), got %g", want, uxAt1)
	}

	_, _, trial, err := e.StiffnessAndInternal(zero, uFull, 0)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	s0 := trial[0].Sig.Sxx
	for ip := 1; ip < shp.NumIps; ip++ {
		if math.Abs(trial[ip].Sig.Sxx-s0) > 1e-6 {
			tst.Errorf("expected equal sigma_xx at all Gauss points, gp0=%g gp%d=%g", s0, ip, trial[ip].Sig.Sxx)
		}
	}
}

// gaussianSolve solves A*x=b via plain Gaussian elimination with partial
// pivoting -- adequate for this test's small (9x9) dense system.
func gaussianSolve(tst *testing.T, A [][]float64, b []float64) []float64 {
	n := len(b)
	for i := 0; i < n; i++ {
		piv := i
		for k := i + 1; k < n; k++ {
			if math.Abs(A[k][i]) > math.Abs(A[piv][i]) {
				piv = k
			}
		}
		A[i], A[piv] = A[piv], A[i]
		b[i], b[piv] = b[piv], b[i]
		if math.Abs(A[i][i]) < 1e-14 {
			tst.Fatalf("singular system at row %d", i)
		}
		for k := i + 1; k < n; k++ {
			f := A[k][i] / A[i][i]
			for j := i; j < n; j++ {
				A[k][j] -= f * A[i][j]
			}
			b[k] -= f * b[i]
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := b[i]
		for j := i + 1; j < n; j++ {
			s -= A[i][j] * x[j]
		}
		x[i] = s / A[i][i]
	}
	return x
}
