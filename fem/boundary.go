// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fem

import (
	"math"

	"github.com/dpedroso/geoslope/inp"
)

// BC holds the resolved essential boundary condition at one node: the
// kind and, for NormalFixed, the unit outward-normal direction the
// prescribed dof is measured along.
type BC struct {
	Kind   inp.BoundaryKind
	Normal [2]float64 // meaningful only when Kind == NormalFixed
}

// edgeKey is an order-independent key for a corner-node pair forming one
// triangle edge.
type edgeKey [2]int

func makeEdgeKey(a, b int) edgeKey {
	if a > b {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// cornerEdges returns the three corner-node pairs of a T6 element in
// cyclic order, matching the mid-side node that lies on each.
func cornerEdges(e inp.Element) [3][2]int {
	return [3][2]int{
		{e.Nodes[0], e.Nodes[1]}, // n1-n2, mid n12
		{e.Nodes[1], e.Nodes[2]}, // n2-n3, mid n23
		{e.Nodes[2], e.Nodes[0]}, // n3-n1, mid n31
	}
}

// midOfEdge returns the mid-side node id opposite to corner edge index k
// (0,1,2) in cornerEdges' order.
func midOfEdge(e inp.Element, k int) int {
	return e.Nodes[3+k]
}

// BuildBoundary resolves the essential boundary condition at every node:
// mesh-boundary edges (those belonging to
// exactly one active element) give each boundary node an outward normal,
// averaged at corners; the node's Kind comes from mesh.Boundary if given,
// else from the bounding-box auto-generation policy (bottom: full-fixed,
// left/right: normal-fixed, top: free).
func BuildBoundary(mesh *inp.Mesh, active ActiveSet) map[int]BC {
	type edgeInfo struct {
		count  int
		nx, ny float64 // outward normal of the (single) element owning this edge, if count==1
	}
	edges := make(map[edgeKey]*edgeInfo)

	for _, e := range mesh.Elements {
		if active != nil && !active[e.ID] {
			continue
		}
		cx, cy := centroid(mesh, e)
		for _, pair := range cornerEdges(e) {
			k := makeEdgeKey(pair[0], pair[1])
			info, ok := edges[k]
			if !ok {
				info = &edgeInfo{}
				edges[k] = info
			}
			info.count++
			if info.count == 1 {
				n1, _ := mesh.NodeByID(pair[0])
				n2, _ := mesh.NodeByID(pair[1])
				nx, ny := outwardNormal(n1.X, n1.Y, n2.X, n2.Y, cx, cy)
				info.nx, info.ny = nx, ny
			}
		}
	}

	// accumulate per-node normals from boundary edges (count==1), for
	// both corner and mid-side nodes.
	normalSum := make(map[int][2]float64)
	accum := func(nid int, nx, ny float64) {
		v := normalSum[nid]
		v[0] += nx
		v[1] += ny
		normalSum[nid] = v
	}
	boundaryNode := make(map[int]bool)
	for _, e := range mesh.Elements {
		if active != nil && !active[e.ID] {
			continue
		}
		for k, pair := range cornerEdges(e) {
			key := makeEdgeKey(pair[0], pair[1])
			info := edges[key]
			if info == nil || info.count != 1 {
				continue
			}
			boundaryNode[pair[0]] = true
			boundaryNode[pair[1]] = true
			mid := midOfEdge(e, k)
			boundaryNode[mid] = true
			accum(pair[0], info.nx, info.ny)
			accum(pair[1], info.nx, info.ny)
			accum(mid, info.nx, info.ny)
		}
	}

	var xmin, xmax, ymin, ymax float64
	first := true
	for _, n := range mesh.Nodes {
		if first {
			xmin, xmax, ymin, ymax = n.X, n.X, n.Y, n.Y
			first = false
			continue
		}
		xmin, xmax = math.Min(xmin, n.X), math.Max(xmax, n.X)
		ymin, ymax = math.Min(ymin, n.Y), math.Max(ymax, n.Y)
	}
	const tol = 1e-9

	result := make(map[int]BC, len(boundaryNode))
	for nid := range boundaryNode {
		n, _ := mesh.NodeByID(nid)
		var kind inp.BoundaryKind
		if mesh.Boundary != nil {
			kind = mesh.Boundary[nid]
		} else {
			switch {
			case math.Abs(n.Y-ymin) < tol:
				kind = inp.FullFixed
			case math.Abs(n.X-xmin) < tol, math.Abs(n.X-xmax) < tol:
				kind = inp.NormalFixed
			default:
				kind = inp.Free
			}
		}
		bc := BC{Kind: kind}
		if kind == inp.NormalFixed {
			sum := normalSum[nid]
			norm := math.Hypot(sum[0], sum[1])
			if norm > 1e-12 {
				bc.Normal = [2]float64{sum[0] / norm, sum[1] / norm}
			} else {
				bc.Normal = [2]float64{1, 0}
			}
		}
		result[nid] = bc
	}
	return result
}

func centroid(mesh *inp.Mesh, e inp.Element) (cx, cy float64) {
	for i := 0; i < 3; i++ {
		n, _ := mesh.NodeByID(e.Nodes[i])
		cx += n.X / 3
		cy += n.Y / 3
	}
	return
}

// outwardNormal returns the unit normal to segment (x1,y1)-(x2,y2)
// pointing away from the reference point (cx,cy) (the owning element's
// centroid).
func outwardNormal(x1, y1, x2, y2, cx, cy float64) (nx, ny float64) {
	dx, dy := x2-x1, y2-y1
	nx, ny = dy, -dx
	length := math.Hypot(nx, ny)
	if length < 1e-14 {
		return 0, 0
	}
	nx, ny = nx/length, ny/length
	mx, my := (x1+x2)/2, (y1+y2)/2
	if nx*(mx-cx)+ny*(my-cy) < 0 {
		nx, ny = -nx, -ny
	}
	return
}
