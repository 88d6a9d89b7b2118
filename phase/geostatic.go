// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"math"
	"sort"

	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/porous"
	"github.com/dpedroso/geoslope/mdl/solid"
)

// verticalBand is one active element's bounding column, used to
// approximate the K0 procedure's self-weight integral (effective unit
// weight integrated downward from the ground surface) without a general
// ray-cast point-location search: for column and layered-ground
// geometries (a single ground surface, or horizontal embankment lifts),
// the element's own corner-triangle bounding box is a good proxy for the
// material layer it belongs to at any x within its span.
type verticalBand struct {
	xmin, xmax, ymin, ymax float64
	mat                    *inp.Material
}

// buildBands collects one band per active element.
func buildBands(mesh *inp.Mesh, active map[int]bool, matOf func(elementID int) *inp.Material) []verticalBand {
	bands := make([]verticalBand, 0, len(active))
	for _, e := range mesh.Elements {
		if !active[e.ID] {
			continue
		}
		mat := matOf(e.ID)
		if mat == nil {
			continue
		}
		b := verticalBand{mat: mat}
		first := true
		for _, nid := range e.Nodes[:3] {
			n, _ := mesh.NodeByID(nid)
			if first {
				b.xmin, b.xmax, b.ymin, b.ymax = n.X, n.X, n.Y, n.Y
				first = false
				continue
			}
			b.xmin, b.xmax = math.Min(b.xmin, n.X), math.Max(b.xmax, n.X)
			b.ymin, b.ymax = math.Min(b.ymin, n.Y), math.Max(b.ymax, n.Y)
		}
		bands = append(bands, b)
	}
	return bands
}

// isNonPorous reports whether mat's drainage is NonPorous, in which case
// its full (not effective) unit weight applies regardless of the water
// table.
func isNonPorous(mat *inp.Material) bool {
	d, err := inp.ParseDrainage(mat.Drainage)
	return err == nil && d == solid.NonPorous
}

// bandsCovering returns the bands whose x-span contains x, falling back
// to every band if none do (a query point outside the active mesh's
// x-range, which should not normally happen for an interior Gauss
// point).
func bandsCovering(bands []verticalBand, x float64) []verticalBand {
	const tol = 1e-9
	var out []verticalBand
	for _, b := range bands {
		if x >= b.xmin-tol && x <= b.xmax+tol {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		out = bands
	}
	return out
}

// topElevation returns the elevation of the highest band covering x,
// i.e. the ground-surface height this column's self-weight integral
// starts from.
func topElevation(bands []verticalBand, x float64) float64 {
	top := math.Inf(-1)
	for _, b := range bandsCovering(bands, x) {
		top = math.Max(top, b.ymax)
	}
	return top
}

// verticalEffectiveMagnitude integrates the effective unit weight from
// top down to y at horizontal position x, splitting each band's
// contribution at the water table (unsaturated weight above, buoyant
// weight below), and returns the (positive) magnitude of the resulting
// compressive vertical effective stress.
func verticalEffectiveMagnitude(bands []verticalBand, x, y, top float64, water porous.Table) float64 {
	covering := append([]verticalBand(nil), bandsCovering(bands, x)...)
	sort.Slice(covering, func(i, j int) bool { return covering[i].ymax > covering[j].ymax })

	var sum float64
	for _, b := range covering {
		hi := math.Min(b.ymax, top)
		lo := math.Max(b.ymin, y)
		if hi <= lo {
			continue
		}
		if isNonPorous(b.mat) {
			sum += (hi - lo) * b.mat.Gamma
			continue
		}
		wy := water.Elevation(x)
		if upHi, upLo := hi, math.Max(lo, wy); upHi > upLo {
			sum += (upHi - upLo) * b.mat.GammaUns
		}
		if dnHi, dnLo := math.Min(hi, wy), lo; dnHi > dnLo {
			sum += (dnHi - dnLo) * (b.mat.GammaSat - porous.GammaWater)
		}
	}
	return sum
}

// geostaticState returns the K0 initial state at (x,y): effective
// vertical stress from self-weight, horizontal (and out-of-plane) stress
// at k0 times vertical, steady pore-water pressure from the water table,
// zero excess PWP and plastic strain.
func geostaticState(bands []verticalBand, x, y, k0 float64, water porous.Table) solid.State {
	top := topElevation(bands, x)
	sigmaVPrime := -verticalEffectiveMagnitude(bands, x, y, top, water)
	sigmaHPrime := k0 * sigmaVPrime
	pwp := water.Steady(x, y)
	return solid.State{
		Sig: solid.Stress{
			Sxx: sigmaHPrime + pwp,
			Syy: sigmaVPrime + pwp,
			Szz: sigmaHPrime + pwp,
			Sxy: 0,
		},
		PWPSteady: pwp,
	}
}
