// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package shp implements the isoparametric shape functions used by the
// element kernel. Only the six-node ("T6") triangle is implemented; this
// core never solves with any other element family.
package shp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/utl"
)

// NumNodes is the number of nodes of a T6 triangle.
const NumNodes = 6

// NumIps is the number of Gauss integration points used for T6.
const NumIps = 3

// DegenerateJacobianTol is the relative tolerance (multiplied by a
// characteristic element-area scale) below which |det(J)| is treated as a
// fatal, degenerate-mesh condition.
const DegenerateJacobianTol = 1e-12

// Ip holds the natural coordinates and weight of one Gauss point.
type Ip struct {
	R, S, W float64
}

// GaussPoints returns the standard 3-point rule for T6: weight 1/6 at each
// of (1/6,1/6), (2/3,1/6), (1/6,2/3).
func GaussPoints() [NumIps]Ip {
	return [NumIps]Ip{
		{R: 1.0 / 6.0, S: 1.0 / 6.0, W: 1.0 / 6.0},
		{R: 2.0 / 3.0, S: 1.0 / 6.0, W: 1.0 / 6.0},
		{R: 1.0 / 6.0, S: 2.0 / 3.0, W: 1.0 / 6.0},
	}
}

// N evaluates the six shape functions at natural coordinates (r,s):
//
//	N1 = t(2t-1), N2 = r(2r-1), N3 = s(2s-1), N12 = 4rt, N23 = 4rs, N31 = 4st
//
// with t = 1 - r - s. Node order is corner-corner-corner then mid-sides in
// cyclic order (n1,n2,n3,n12,n23,n31).
func N(r, s float64) (n [NumNodes]float64) {
	t := 1 - r - s
	n[0] = t * (2*t - 1)
	n[1] = r * (2*r - 1)
	n[2] = s * (2*s - 1)
	n[3] = 4 * r * t
	n[4] = 4 * r * s
	n[5] = 4 * s * t
	return
}

// DNDrs evaluates the natural derivatives [dN/dr; dN/ds] at (r,s).
func DNDrs(r, s float64) (dn [2][NumNodes]float64) {
	t := 1 - r - s
	// dN/dr
	dn[0][0] = -(4*t - 1)
	dn[0][1] = 4*r - 1
	dn[0][2] = 0
	dn[0][3] = 4 * (t - r)
	dn[0][4] = 4 * s
	dn[0][5] = -4 * s
	// dN/ds
	dn[1][0] = -(4*t - 1)
	dn[1][1] = 0
	dn[1][2] = 4*s - 1
	dn[1][3] = -4 * r
	dn[1][4] = 4 * r
	dn[1][5] = 4 * (t - s)
	return
}

// Jacobian computes J = [[dx/dr, dy/dr], [dx/ds, dy/ds]] and its
// determinant from nodal coordinates x,y (length NumNodes each) and the
// natural derivatives at one Gauss point.
func Jacobian(x, y [NumNodes]float64, dn [2][NumNodes]float64) (J [2][2]float64, detJ float64) {
	for a := 0; a < NumNodes; a++ {
		J[0][0] += dn[0][a] * x[a] // dx/dr
		J[0][1] += dn[0][a] * y[a] // dy/dr
		J[1][0] += dn[1][a] * x[a] // dx/ds
		J[1][1] += dn[1][a] * y[a] // dy/ds
	}
	detJ = J[0][0]*J[1][1] - J[0][1]*J[1][0]
	return
}

// CartesianDerivs solves J * [dN/dx; dN/dy] = [dN/dr; dN/ds] for the
// Cartesian shape-function derivatives, given the already-inverted
// Jacobian determinant check has passed.
func CartesianDerivs(J [2][2]float64, detJ float64, dn [2][NumNodes]float64) (dc [2][NumNodes]float64) {
	invDet := 1.0 / detJ
	// inverse of J (2x2)
	ij00 := J[1][1] * invDet
	ij01 := -J[0][1] * invDet
	ij10 := -J[1][0] * invDet
	ij11 := J[0][0] * invDet
	for a := 0; a < NumNodes; a++ {
		dc[0][a] = ij00*dn[0][a] + ij01*dn[1][a] // dN/dx
		dc[1][a] = ij10*dn[0][a] + ij11*dn[1][a] // dN/dy
	}
	return
}

// CheckJacobian returns a fatal error if |detJ| is too small relative to
// areaScale (e.g. the element's nominal area).
func CheckJacobian(detJ, areaScale float64, elementID int) error {
	if detJ <= 0 {
		return chk.Err("shp: element %d has non-positive Jacobian determinant %g; mesh orientation must be counter-clockwise", elementID, detJ)
	}
	if detJ < DegenerateJacobianTol*areaScale {
		return chk.Err("shp: element %d has degenerate Jacobian |detJ|=%g below tolerance scaled by area %g", elementID, detJ, areaScale)
	}
	return nil
}

// BMatrix assembles the 3x12 plane-strain B-matrix (maps the 12-component
// nodal displacement vector to engineering strain [exx,eyy,gxy]) from the
// Cartesian derivatives.
func BMatrix(dc [2][NumNodes]float64) (B [3][12]float64) {
	for a := 0; a < NumNodes; a++ {
		ix, iy := 2*a, 2*a+1
		B[0][ix] = dc[0][a] // dNa/dx -> exx
		B[1][iy] = dc[1][a] // dNa/dy -> eyy
		B[2][ix] = dc[1][a] // dNa/dy -> gxy (du/dy term)
		B[2][iy] = dc[0][a] // dNa/dx -> gxy (dv/dx term)
	}
	return
}

// EdgeN evaluates the 1D quadratic edge shape functions of a T6 edge
// (corner, corner, mid-side) at natural coordinate xi in [-1,1], used for
// line-load integration along an element edge.
func EdgeN(xi float64) (n [3]float64) {
	n[0] = 0.5 * xi * (xi - 1)
	n[1] = 0.5 * xi * (xi + 1)
	n[2] = 1 - xi*xi
	return
}

// EdgeGauss returns the standard 2-point Gauss rule on [-1,1].
func EdgeGauss() [2]struct{ Xi, W float64 } {
	g := 1.0 / 1.7320508075688772 // 1/sqrt(3)
	return [2]struct{ Xi, W float64 }{
		{Xi: -g, W: 1},
		{Xi: g, W: 1},
	}
}

// Recover extrapolates Gauss-point values gpVals (length NumIps) to the
// element's NumNodes nodes by fitting a linear field a+br+cs through the
// three Gauss-point values and evaluating it at each node's natural
// coordinates (post-processing only; never feeds back into a solve).
func Recover(gpVals [NumIps]float64) (nodeVals [NumNodes]float64) {
	// corner/mid-side natural coordinates
	coords := [NumNodes][2]float64{
		{0, 0}, {1, 0}, {0, 1},
		{0.5, 0}, {0.5, 0.5}, {0, 0.5},
	}
	gps := GaussPoints()
	// Build a simple affine extrapolation: fit a linear field a+br+cs to
	// the 3 Gauss values (exact for the 3-point rule's first-order
	// accuracy) then evaluate at each node's natural coordinate.
	a, b, c := fitLinear(gps, gpVals)
	for i, p := range coords {
		nodeVals[i] = a + b*p[0] + c*p[1]
	}
	return
}

// fitLinear solves the 3x3 linear system for a least-squares-exact fit of
// a+br+cs through the three Gauss points (the system is square and
// well-posed because the three points are non-collinear).
func fitLinear(gps [NumIps]Ip, vals [NumIps]float64) (a, b, c float64) {
	A := utl.Alloc(3, 3)
	rhs := make([]float64, 3)
	for i, p := range gps {
		A[i][0], A[i][1], A[i][2] = 1, p.R, p.S
		rhs[i] = vals[i]
	}
	// Cramer's rule on the fixed 3x3 system.
	det := det3(A)
	if det == 0 {
		return vals[0], 0, 0
	}
	Aa := cloneWithCol(A, 0, rhs)
	Ab := cloneWithCol(A, 1, rhs)
	Ac := cloneWithCol(A, 2, rhs)
	a = det3(Aa) / det
	b = det3(Ab) / det
	c = det3(Ac) / det
	return
}

func det3(m [][]float64) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func cloneWithCol(m [][]float64, col int, v []float64) [][]float64 {
	out := utl.Alloc(3, 3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j]
		}
		out[i][col] = v[i]
	}
	return out
}
