// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"
	"runtime"
	"sort"
	"sync"

	elesolid "github.com/dpedroso/geoslope/ele/solid"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/solid"
	"github.com/dpedroso/geoslope/shp"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// ElementStates holds the per-element, per-Gauss-point constitutive state
// for one active set, keyed by element ID.
type ElementStates map[int][shp.NumIps]solid.State

// Assembler builds the global tangent and force vectors for one phase's
// active element set.
type Assembler struct {
	Dom    *Domain
	Active ActiveSet
	Elems  map[int]*elesolid.Element
	Cells  map[int]inp.Element
	BC     map[int]BC
	Pinned map[int]bool // equation number -> prescribed (essential BC)
	order  []int        // element IDs, sorted, for deterministic reduction
}

// NewAssembler builds element objects (and their cached B-matrices) for
// the given active set, using models (element ID -> resolved
// constitutive model, after any phase-local material override), and
// resolves the essential boundary conditions.
func NewAssembler(dom *Domain, active ActiveSet, models map[int]solid.Model) (*Assembler, error) {
	elems := make(map[int]*elesolid.Element, len(active))
	cells := make(map[int]inp.Element, len(active))
	var order []int
	for _, e := range dom.Mesh.Elements {
		if !active[e.ID] {
			continue
		}
		x, y, err := dom.Mesh.Coords(e)
		if err != nil {
			return nil, err
		}
		model, ok := models[e.ID]
		if !ok {
			return nil, chk.Err("fem: no constitutive model resolved for element %d", e.ID)
		}
		el, err := elesolid.New(e.ID, x, y, model)
		if err != nil {
			return nil, err
		}
		elems[e.ID] = el
		cells[e.ID] = e
		order = append(order, e.ID)
	}
	sort.Ints(order)

	bc := BuildBoundary(dom.Mesh, active)
	pinned := PinnedFromBoundary(dom, bc)

	return &Assembler{
		Dom:    dom,
		Active: active,
		Elems:  elems,
		Cells:  cells,
		BC:     bc,
		Pinned: pinned,
		order:  order,
	}, nil
}

// PinnedFromBoundary maps a resolved boundary-condition set to the
// prescribed (essential-bc) equation numbers. Exposed standalone so the
// strength-reduction loop can determine the pinned set without resolving
// a constitutive model for every active element (it rebuilds the
// tangent's material at each trial reduction factor, but the essential
// boundary conditions never change within a phase).
func PinnedFromBoundary(dom *Domain, bc map[int]BC) map[int]bool {
	pinned := make(map[int]bool)
	for nid, b := range bc {
		switch b.Kind {
		case inp.FullFixed:
			pinned[dom.EqUx(nid)] = true
			pinned[dom.EqUy(nid)] = true
		case inp.NormalFixed:
			// Pinning the dof normal to the boundary in the general
			// (non-axis-aligned) case requires rotating the local 2x2
			// block into normal/tangential components. The default
			// bounding-box policy only ever produces axis-aligned
			// normals, so picking the larger-magnitude component of the
			// unit normal reduces to pinning a single global dof
			// directly.
			if math.Abs(b.Normal[0]) >= math.Abs(b.Normal[1]) {
				pinned[dom.EqUx(nid)] = true
			} else {
				pinned[dom.EqUy(nid)] = true
			}
		}
	}
	return pinned
}

// dofMap returns the 12 global equation numbers of an element's six
// nodes, in (ux,uy) pairs per node.
func (a *Assembler) dofMap(e inp.Element) (m [elesolid.Ndof]int) {
	for i, nid := range e.Nodes {
		m[2*i] = a.Dom.EqUx(nid)
		m[2*i+1] = a.Dom.EqUy(nid)
	}
	return
}

// DofMap exposes dofMap for the Phase Driver's own force-vector assembly
// (gravity body forces), which needs the same scatter pattern Assemble
// uses but outside of a stiffness pass.
func (a *Assembler) DofMap(e inp.Element) [elesolid.Ndof]int { return a.dofMap(e) }

// Order returns the active element IDs in the deterministic reduction
// order.
func (a *Assembler) Order() []int { return a.order }

// Assemble builds the global tangent K and internal-force vector fint
// from the current trial displacement increment dispInc (length
// dom.NDof), reducing element contributions in increasing element-ID
// order -- a data-independent reduction order, so re-running a phase is
// bit-identical regardless of the worker schedule. base holds the
// last-converged per-Gauss-point state for every active element; the
// returned trial map holds the not-yet-committed states for this
// iterate.
//
// Essential boundary conditions are enforced by row-and-column
// elimination as the scatter happens: any (row,col) pair touching a
// pinned equation is dropped (the arc-length corrector only ever drives
// a homogeneous, du=0, essential-bc increment -- loads, not imposed
// displacements, are the phase's external action -- so the coupling term
// a general elimination would move to the RHS is always zero and safely
// omitted); each pinned equation instead gets an identity row.
func (a *Assembler) Assemble(base ElementStates, dispInc []float64) (K *la.Triplet, fint []float64, trial ElementStates, err error) {
	n := a.Dom.NDof
	nnz := len(a.order)*elesolid.Ndof*elesolid.Ndof + n
	K = new(la.Triplet)
	K.Init(n, n, nnz)
	fint = make([]float64, n)
	trial = make(ElementStates, len(a.order))

	// Element-loop work (stiffness, internal force) is embarrassingly
	// parallel over active elements and runs across a fixed-size worker
	// pool. Each worker computes one element's write-private
	// contribution (Ke, fe, states); this goroutine is the sole owner of
	// the shared globals and serializes them into K/fint/trial strictly
	// in a.order, so the parallel schedule never affects the
	// floating-point result.
	results := make([]elemResult, len(a.order))

	workers := runtime.NumCPU() - 2
	if workers < 1 {
		workers = 1
	}
	if workers > len(a.order) {
		workers = len(a.order)
	}
	if workers <= 1 {
		for idx, id := range a.order {
			results[idx] = a.computeElement(id, base, dispInc)
		}
	} else {
		var wg sync.WaitGroup
		jobs := make(chan int, len(a.order))
		for idx := range a.order {
			jobs <- idx
		}
		close(jobs)
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for idx := range jobs {
					results[idx] = a.computeElement(a.order[idx], base, dispInc)
				}
			}()
		}
		wg.Wait()
	}

	for idx, id := range a.order {
		r := results[idx]
		if r.err != nil {
			return nil, nil, nil, r.err
		}
		trial[id] = r.states
		for i, gi := range r.dmap {
			if a.Pinned[gi] {
				continue
			}
			fint[gi] += r.fe[i]
			for j, gj := range r.dmap {
				if a.Pinned[gj] {
					continue
				}
				K.Put(gi, gj, r.Ke[i][j])
			}
		}
	}

	a.regularizeFloating(K)
	for eq := range a.Pinned {
		K.Put(eq, eq, 1)
	}
	return K, fint, trial, nil
}

// elemResult is one element's write-private contribution to the global
// tangent and internal-force vector, produced by computeElement.
type elemResult struct {
	Ke     [elesolid.Ndof][elesolid.Ndof]float64
	fe     [elesolid.Ndof]float64
	states [shp.NumIps]solid.State
	dmap   [elesolid.Ndof]int
	err    error
}

// computeElement evaluates one element's stiffness/internal-force
// contribution in isolation (read-only views of base state and the
// trial displacement increment), safe to run concurrently with other
// elements' computeElement calls since it touches no shared state.
func (a *Assembler) computeElement(id int, base ElementStates, dispInc []float64) (res elemResult) {
	el := a.Elems[id]
	cell := a.Cells[id]
	res.dmap = a.dofMap(cell)
	var dloc [elesolid.Ndof]float64
	for i, g := range res.dmap {
		dloc[i] = dispInc[g]
	}
	res.Ke, res.fe, res.states, res.err = el.StiffnessAndInternal(base[id], dloc, 0)
	return
}

// regularizeFloating adds a small diagonal stiffness to any (non-pinned)
// dof of a node not connected to an active element, keeping the system
// nonsingular. The phase driver zeroes such nodes' displacement
// increments after solving, so they keep the inherited displacement.
func (a *Assembler) regularizeFloating(K *la.Triplet) {
	active := a.Dom.ActiveNodes(a.Active)
	const eps = 1e-6
	for _, node := range a.Dom.Mesh.Nodes {
		if active[node.ID] {
			continue
		}
		for _, eq := range [2]int{a.Dom.EqUx(node.ID), a.Dom.EqUy(node.ID)} {
			if !a.Pinned[eq] {
				K.Put(eq, eq, eps)
			}
		}
	}
}

// FloatingNodes returns the node IDs with no connection to an active
// element.
func (a *Assembler) FloatingNodes() []int {
	active := a.Dom.ActiveNodes(a.Active)
	var out []int
	for _, node := range a.Dom.Mesh.Nodes {
		if !active[node.ID] {
			out = append(out, node.ID)
		}
	}
	sort.Ints(out)
	return out
}

// ZeroPinned zeroes every prescribed equation of v in place, used to keep
// an externally-assembled force vector (fext) consistent with the
// elimination applied to K in Assemble.
func (a *Assembler) ZeroPinned(v []float64) {
	for eq := range a.Pinned {
		v[eq] = 0
	}
}
