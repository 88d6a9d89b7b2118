// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"

	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/shp"
)

// ExternalForce assembles the global external force vector from the
// given loads: point loads map to their
// nearest mesh node (Euclidean), line loads integrate along whichever
// mesh-boundary edges the segment coincides with using the six-node
// edge shape functions and a two-point Gauss rule.
func (a *Assembler) ExternalForce(loads []*inp.Load) []float64 {
	f := make([]float64, a.Dom.NDof)
	for _, l := range loads {
		if l.Point != nil {
			a.addPointLoad(f, l.Point)
		}
		if l.Line != nil {
			a.addLineLoad(f, l.Line)
		}
	}
	a.ZeroPinned(f)
	return f
}

func (a *Assembler) addPointLoad(f []float64, p *inp.PointLoad) {
	nid := 0
	if p.NodeID != nil {
		nid = *p.NodeID
	} else {
		nid = a.nearestNode(p.X, p.Y)
	}
	f[a.Dom.EqUx(nid)] += p.Fx
	f[a.Dom.EqUy(nid)] += p.Fy
}

// nearestNode returns the mesh node ID closest (Euclidean) to (x,y).
func (a *Assembler) nearestNode(x, y float64) int {
	best := -1
	bestD := math.Inf(1)
	for _, n := range a.Dom.Mesh.Nodes {
		d := (n.X-x)*(n.X-x) + (n.Y-y)*(n.Y-y)
		if d < bestD {
			bestD = d
			best = n.ID
		}
	}
	return best
}

// addLineLoad integrates a per-unit-length force along every
// mesh-boundary element edge that coincides with the segment
// (p.X1,p.Y1)-(p.X2,p.Y2).
func (a *Assembler) addLineLoad(f []float64, l *inp.LineLoad) {
	dx, dy := l.X2-l.X1, l.Y2-l.Y1
	segLen := math.Hypot(dx, dy)
	if segLen < 1e-14 {
		return
	}
	ux, uy := dx/segLen, dy/segLen
	const tol = 1e-6

	for _, id := range a.order {
		cell := a.Cells[id]
		for k, pair := range cornerEdges(cell) {
			n1, _ := a.Dom.Mesh.NodeByID(pair[0])
			n2, _ := a.Dom.Mesh.NodeByID(pair[1])
			if !onSegment(n1.X, n1.Y, l.X1, l.Y1, ux, uy, segLen, tol) ||
				!onSegment(n2.X, n2.Y, l.X1, l.Y1, ux, uy, segLen, tol) {
				continue
			}
			mid := midOfEdge(cell, k)
			nm, _ := a.Dom.Mesh.NodeByID(mid)
			a.integrateEdge(f, n1, n2, nm, l.Fx, l.Fy)
		}
	}
}

// onSegment reports whether (x,y) lies on the infinite line through
// (x0,y0) with unit direction (ux,uy), within tol, and within the
// segment's parametric span [0,segLen] (with a small tolerance to admit
// endpoints).
func onSegment(x, y, x0, y0, ux, uy, segLen, tol float64) bool {
	rx, ry := x-x0, y-y0
	t := rx*ux + ry*uy
	if t < -tol || t > segLen+tol {
		return false
	}
	px, py := x0+t*ux, y0+t*uy
	return math.Hypot(x-px, y-py) <= tol
}

// integrateEdge adds the consistent nodal loads for a uniform force per
// unit length (fx,fy) along the straight edge (corner n1 at xi=-1,
// corner n2 at xi=+1, mid-side nm at xi=0), using shp's edge shape
// functions and two-point Gauss rule.
func (a *Assembler) integrateEdge(f []float64, n1, n2, nm inp.Node, fx, fy float64) {
	length := math.Hypot(n2.X-n1.X, n2.Y-n1.Y)
	jac := length / 2
	for _, g := range shp.EdgeGauss() {
		n := shp.EdgeN(g.Xi)
		w := g.W * jac
		f[a.Dom.EqUx(n1.ID)] += n[0] * fx * w
		f[a.Dom.EqUx(n2.ID)] += n[1] * fx * w
		f[a.Dom.EqUx(nm.ID)] += n[2] * fx * w
		f[a.Dom.EqUy(n1.ID)] += n[0] * fy * w
		f[a.Dom.EqUy(n2.ID)] += n[1] * fy * w
		f[a.Dom.EqUy(nm.ID)] += n[2] * fy * w
	}
}
