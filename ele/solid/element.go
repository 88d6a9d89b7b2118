// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package solid implements the element kernel on top of the T6 shape
// functions in package shp: element stiffness and internal force,
// trial-stress evaluation deferred to the constitutive module, and
// post-processing extrapolation.
package solid

import (
	"github.com/dpedroso/geoslope/mdl/solid"
	"github.com/dpedroso/geoslope/shp"

	"github.com/cpmech/gosl/chk"
)

// Ndof is the number of degrees of freedom of a T6 plane-strain element
// (2 per node).
const Ndof = 2 * shp.NumNodes

// Element owns the geometry-derived, disp-independent quantities of one
// T6 element: Cartesian B-matrices and integration weights at each Gauss
// point, computed once at construction since the mesh never deforms the
// reference geometry used for a small-strain B-matrix.
type Element struct {
	ID    int
	Model solid.Model

	x, y [shp.NumNodes]float64
	b    [shp.NumIps][3][Ndof]float64 // B-matrix at each Gauss point
	w    [shp.NumIps]float64          // detJ * gauss weight at each Gauss point
	area float64
}

// New builds an Element from its nodal coordinates (ordered
// n1,n2,n3,n12,n23,n31) and constitutive model, computing and caching
// the B-matrices. Returns a fatal error if the Jacobian is non-positive
// or degenerate at any Gauss point.
func New(id int, x, y [shp.NumNodes]float64, model solid.Model) (*Element, error) {
	e := &Element{ID: id, Model: model, x: x, y: y}
	e.area = triangleArea(x, y)
	gps := shp.GaussPoints()
	for i, gp := range gps {
		dn := shp.DNDrs(gp.R, gp.S)
		J, detJ := shp.Jacobian(x, y, dn)
		if err := shp.CheckJacobian(detJ, e.area, id); err != nil {
			return nil, err
		}
		dc := shp.CartesianDerivs(J, detJ, dn)
		e.b[i] = shp.BMatrix(dc)
		e.w[i] = detJ * gp.W
	}
	return e, nil
}

// triangleArea returns the area of the corner triangle (n1,n2,n3), used
// only as the characteristic length scale for the degenerate-Jacobian
// check -- the mid-side nodes do not affect it.
func triangleArea(x, y [shp.NumNodes]float64) float64 {
	return 0.5 * ((x[1]-x[0])*(y[2]-y[0]) - (x[2]-x[0])*(y[1]-y[0]))
}

// Strain returns the plane-strain increment (exx,eyy,gxy) at Gauss point
// ip produced by the 12-component nodal displacement increment dispInc.
func (e *Element) Strain(ip int, dispInc [Ndof]float64) (deps [3]float64) {
	B := e.b[ip]
	for i := 0; i < 3; i++ {
		for j := 0; j < Ndof; j++ {
			deps[i] += B[i][j] * dispInc[j]
		}
	}
	return
}

// StressAtGP computes the trial elastic stress at Gauss point ip from the
// current state and a displacement increment, then defers to the
// constitutive module's return mapping. base is never mutated; the
// returned State is the trial (not-yet-committed) state the caller may
// discard if the enclosing Newton iteration fails to converge.
func (e *Element) StressAtGP(ip int, base solid.State, dispInc [Ndof]float64, dEpsZZ float64) (solid.State, error) {
	trial := base.Clone()
	deps := e.Strain(ip, dispInc)
	if err := e.Model.Update(&trial, deps, dEpsZZ); err != nil {
		return solid.State{}, chk.Err("ele/solid: element %d gp %d: %v", e.ID, ip, err)
	}
	return trial, nil
}

// StiffnessAndInternal returns the 12x12 tangent and internal force
// vector for the current trial displacement increment, and the trial
// (not-yet-committed) per-Gauss-point states. base holds the
// last-converged state at each of the three Gauss points.
func (e *Element) StiffnessAndInternal(base [shp.NumIps]solid.State, dispInc [Ndof]float64, dEpsZZ float64) (Ke [Ndof][Ndof]float64, fint [Ndof]float64, trial [shp.NumIps]solid.State, err error) {
	for ip := range base {
		trial[ip], err = e.StressAtGP(ip, base[ip], dispInc, dEpsZZ)
		if err != nil {
			return
		}
		D := e.Model.Tangent(&trial[ip])
		B := e.b[ip]
		w := e.w[ip]

		// Ke += w * B^T * D * B
		var DB [3][Ndof]float64
		for a := 0; a < 3; a++ {
			for j := 0; j < Ndof; j++ {
				var s float64
				for k := 0; k < 3; k++ {
					s += D[a][k] * B[k][j]
				}
				DB[a][j] = s
			}
		}
		for i := 0; i < Ndof; i++ {
			for j := 0; j < Ndof; j++ {
				var s float64
				for a := 0; a < 3; a++ {
					s += B[a][i] * DB[a][j]
				}
				Ke[i][j] += w * s
			}
		}

		// fint += w * B^T * (sigma_eff - p_excess). The excess pore
		// pressure carries part of the applied (compressive) load, so it
		// subtracts from the skeleton's share; the steady component is
		// already balanced by the buoyant self-weight split and stays
		// out of the internal force. The structural resistance of the
		// pore fluid enters through the Kw penalty in D.
		eff := trial[ip].Effective()
		pe := trial[ip].PWPExcess
		sigVec := [3]float64{eff.Sxx - pe, eff.Syy - pe, eff.Sxy}
		for i := 0; i < Ndof; i++ {
			var s float64
			for a := 0; a < 3; a++ {
				s += B[a][i] * sigVec[a]
			}
			fint[i] += w * s
		}
	}
	return
}

// BodyForce returns the nodal force vector from integrating the body
// force per unit volume (0,-gamma(x,y)) over the element.
// gamma is evaluated at each Gauss point's physical position so a
// straddling water table can switch gamma_sat/gamma_unsat within a
// single element.
func (e *Element) BodyForce(gamma func(x, y float64) float64) (f [Ndof]float64) {
	gps := shp.GaussPoints()
	for ip, gp := range gps {
		n := shp.N(gp.R, gp.S)
		var px, py float64
		for a := 0; a < shp.NumNodes; a++ {
			px += n[a] * e.x[a]
			py += n[a] * e.y[a]
		}
		g := gamma(px, py)
		w := e.w[ip]
		for a := 0; a < shp.NumNodes; a++ {
			f[2*a+1] += -w * n[a] * g // fy = -gamma (downward body force)
		}
	}
	return
}

// RecoverNodalValues extrapolates the three Gauss-point values gpVals to
// the element's six nodes for post-processing only; the extrapolation
// never feeds back into the solve.
func (e *Element) RecoverNodalValues(gpVals [shp.NumIps]float64) [shp.NumNodes]float64 {
	return shp.Recover(gpVals)
}

// Centroid returns the element's corner-triangle centroid, used to
// sample the geostatic field for newly-activated elements.
func (e *Element) Centroid() (cx, cy float64) {
	cx = (e.x[0] + e.x[1] + e.x[2]) / 3
	cy = (e.y[0] + e.y[1] + e.y[2]) / 3
	return
}

// GPPositions returns the physical (x,y) of each Gauss point, used for
// geostatic initialization (K0 integration, steady PWP).
func (e *Element) GPPositions() (pos [shp.NumIps][2]float64) {
	gps := shp.GaussPoints()
	for ip, gp := range gps {
		n := shp.N(gp.R, gp.S)
		for a := 0; a < shp.NumNodes; a++ {
			pos[ip][0] += n[a] * e.x[a]
			pos[ip][1] += n[a] * e.y[a]
		}
	}
	return
}

// Area returns the corner-triangle area used as the element's
// characteristic length scale.
func (e *Element) Area() float64 { return e.area }
