// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data model consumed by the core: mesh,
// materials, water levels, loads, phases, and solver settings, read from a
// versioned project file for replay.
package inp

import (
	"github.com/cpmech/gosl/chk"
)

// Node is a stable, immutable mesh vertex.
type Node struct {
	ID   int
	X, Y float64
}

// Element is a six-node ("T6") triangle: three corner nodes (n1,n2,n3)
// followed by three mid-side nodes (n12,n23,n31) in cyclic order.
type Element struct {
	ID         int
	Nodes      [6]int // node IDs, ordered n1,n2,n3,n12,n23,n31
	PolygonTag int    // phase masking and material-override key
	MaterialID string
}

// BoundaryKind classifies an essential boundary condition at a node.
type BoundaryKind int

const (
	Free BoundaryKind = iota
	FullFixed
	NormalFixed
)

// Mesh is the finished mesh handed to the core by the external mesher:
// nodes and elements, plus an optional explicit boundary classification
// (if absent, fem.BuildBoundary applies its auto-generation policy).
type Mesh struct {
	Nodes     []Node
	Elements  []Element
	Boundary  map[int]BoundaryKind // node ID -> kind; nil if not specified
	NodeIndex map[int]int          // node ID -> index into Nodes, built by Validate
}

// Validate checks identity invariants before any phase runs: unique node
// and element identities, and connectivity referencing only known nodes.
// Geometric validity (a strictly positive Jacobian determinant at every
// Gauss point, counter-clockwise orientation) is checked when elements
// are built for a phase's active set.
func (m *Mesh) Validate() error {
	m.NodeIndex = make(map[int]int, len(m.Nodes))
	for i, n := range m.Nodes {
		if _, dup := m.NodeIndex[n.ID]; dup {
			return chk.Err("inp: duplicate node identity %d", n.ID)
		}
		m.NodeIndex[n.ID] = i
	}
	seenElem := make(map[int]bool, len(m.Elements))
	for _, e := range m.Elements {
		if seenElem[e.ID] {
			return chk.Err("inp: duplicate element identity %d", e.ID)
		}
		seenElem[e.ID] = true
		for _, nid := range e.Nodes {
			if _, ok := m.NodeIndex[nid]; !ok {
				return chk.Err("inp: element %d references unknown node %d", e.ID, nid)
			}
		}
	}
	return nil
}

// NodeByID returns the node with the given identity.
func (m *Mesh) NodeByID(id int) (Node, bool) {
	i, ok := m.NodeIndex[id]
	if !ok {
		return Node{}, false
	}
	return m.Nodes[i], true
}

// Coords returns the six (x,y) node coordinates of an element, in the
// layout shp functions expect.
func (m *Mesh) Coords(e Element) (x, y [6]float64, err error) {
	for i, nid := range e.Nodes {
		n, ok := m.NodeByID(nid)
		if !ok {
			return x, y, chk.Err("inp: element %d references unknown node %d", e.ID, nid)
		}
		x[i], y[i] = n.X, n.Y
	}
	return
}
