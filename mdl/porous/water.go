// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package porous implements the pore-pressure engine: steady-state
// pore-water pressure from a piecewise-linear water table, and excess
// pore-water pressure under undrained constraints.
package porous

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// GammaWater is the unit weight of water, kN/m^3.
const GammaWater = 9.81

// Table is a piecewise-linear phreatic surface: an ordered polyline of
// (x,y) vertices. Outside its x-span the surface extends horizontally
// from the nearest endpoint.
type Table struct {
	X, Y []float64
}

// Validate checks the table is non-empty and x-ordered; a malformed
// table is a fatal input error.
func (t Table) Validate() error {
	if len(t.X) == 0 || len(t.X) != len(t.Y) {
		return chk.Err("porous: water table must have matching, non-empty X/Y arrays")
	}
	for i := 1; i < len(t.X); i++ {
		if t.X[i] < t.X[i-1] {
			return chk.Err("porous: water table vertices must be ordered by increasing x")
		}
	}
	return nil
}

// Elevation returns the water-table elevation yw at horizontal position
// x: constant beyond the endpoints, linear between bracketing vertices
// otherwise. A zero-value Table (no water level configured for a phase)
// reports the water table at negative infinity, i.e. a fully dry
// analysis: every query point is "above" it.
func (t Table) Elevation(x float64) float64 {
	n := len(t.X)
	if n == 0 {
		return math.Inf(-1)
	}
	if x <= t.X[0] {
		return t.Y[0]
	}
	if x >= t.X[n-1] {
		return t.Y[n-1]
	}
	for i := 1; i < n; i++ {
		if x <= t.X[i] {
			x0, x1 := t.X[i-1], t.X[i]
			y0, y1 := t.Y[i-1], t.Y[i]
			if x1 == x0 {
				return y0
			}
			f := (x - x0) / (x1 - x0)
			return y0 + f*(y1-y0)
		}
	}
	return t.Y[n-1]
}

// Steady returns the steady-state (hydrostatic) pore-water pressure at
// (x,y): zero above the water table, gammaW*(yw-y) below it.
func (t Table) Steady(x, y float64) float64 {
	yw := t.Elevation(x)
	if y >= yw {
		return 0
	}
	return GammaWater * (yw - y)
}
