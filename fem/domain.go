// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package fem implements the assembler and boundary engine:
// degree-of-freedom numbering, the global sparse tangent and residual,
// essential boundary conditions, and nodal-load mapping.
package fem

import (
	"github.com/dpedroso/geoslope/inp"

	"github.com/cpmech/gosl/chk"
)

// Domain owns the dof numbering for one mesh: two equations per node
// (ux,uy) in node order. The numbering never changes within a solve
// session -- only the set of elements contributing to K/fint changes
// between phases.
type Domain struct {
	Mesh *inp.Mesh
	NDof int
}

// NewDomain builds a Domain from a validated mesh.
func NewDomain(mesh *inp.Mesh) (*Domain, error) {
	if mesh.NodeIndex == nil {
		return nil, chk.Err("fem: mesh must be validated before building a domain")
	}
	return &Domain{Mesh: mesh, NDof: 2 * len(mesh.Nodes)}, nil
}

// EqUx and EqUy return the global equation numbers of a node's two dofs.
func (d *Domain) EqUx(nodeID int) int { return 2 * d.Mesh.NodeIndex[nodeID] }
func (d *Domain) EqUy(nodeID int) int { return 2*d.Mesh.NodeIndex[nodeID] + 1 }

// ActiveSet is the set of element identities contributing stiffness and
// internal force in the current phase.
type ActiveSet map[int]bool

// NewActiveSet builds an ActiveSet from the polygon tags a phase marks
// active, selecting every mesh element whose PolygonTag is in tags.
func NewActiveSet(mesh *inp.Mesh, tags []int) ActiveSet {
	tagSet := make(map[int]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}
	active := make(ActiveSet)
	for _, e := range mesh.Elements {
		if tagSet[e.PolygonTag] {
			active[e.ID] = true
		}
	}
	return active
}

// ActiveNodes returns the set of node IDs touched by at least one active
// element. Nodes absent from this set are floating and must be
// regularized by the Assembler.
func (d *Domain) ActiveNodes(active ActiveSet) map[int]bool {
	nodes := make(map[int]bool)
	for _, e := range d.Mesh.Elements {
		if !active[e.ID] {
			continue
		}
		for _, nid := range e.Nodes {
			nodes[nid] = true
		}
	}
	return nodes
}
