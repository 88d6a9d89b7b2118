// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package porous

import (
	"math"
	"testing"
)

// Test_steady_column checks the hydrostatic column: a flat water table
// at y=10, steady PWP at y=0 should be gammaW*10.
func Test_steady_column(tst *testing.T) {
	tbl := Table{X: []float64{0, 1}, Y: []float64{10, 10}}
	p := tbl.Steady(0.5, 0)
	want := GammaWater * 10
	if math.Abs(p-want) > 1e-9 {
		tst.Errorf("expected steady PWP %g, got %g", want, p)
	}
}

// Test_steady_above_table checks zero PWP above the phreatic surface.
func Test_steady_above_table(tst *testing.T) {
	tbl := Table{X: []float64{0, 10}, Y: []float64{5, 5}}
	if p := tbl.Steady(3, 6); p != 0 {
		tst.Errorf("expected zero PWP above water table, got %g", p)
	}
}

// Test_table_interpolation checks linear interpolation between vertices
// and constant extension beyond endpoints.
func Test_table_interpolation(tst *testing.T) {
	tbl := Table{X: []float64{0, 10, 20}, Y: []float64{10, 8, 8}}
	if e := tbl.Elevation(5); math.Abs(e-9) > 1e-12 {
		tst.Errorf("expected interpolated elevation 9, got %g", e)
	}
	if e := tbl.Elevation(-5); e != 10 {
		tst.Errorf("expected extension to first vertex elevation, got %g", e)
	}
	if e := tbl.Elevation(100); e != 8 {
		tst.Errorf("expected extension to last vertex elevation, got %g", e)
	}
}

// Test_zero_value_table_is_dry checks that a phase with no configured
// water level (the zero-value Table) reports zero PWP everywhere rather
// than panicking.
func Test_zero_value_table_is_dry(tst *testing.T) {
	var tbl Table
	if p := tbl.Steady(0, 0); p != 0 {
		tst.Errorf("expected zero PWP for an unconfigured water table, got %g", p)
	}
	if e := tbl.Elevation(0); !math.IsInf(e, -1) {
		tst.Errorf("expected elevation -Inf for an unconfigured water table, got %g", e)
	}
}

// Test_excess_increment checks compressive volumetric strain raises the
// excess PWP under this tension-positive convention.
func Test_excess_increment(tst *testing.T) {
	dp := ExcessIncrement(1000, -0.001)
	if dp <= 0 {
		tst.Errorf("expected positive excess PWP increment under compression, got %g", dp)
	}
}

// Test_fluid_bulk_modulus checks the penalty vanishes when the effective
// Poisson's ratio already equals the undrained target.
func Test_fluid_bulk_modulus(tst *testing.T) {
	kw := FluidBulkModulus(1e4, 0.495, 0.495)
	if kw != 0 {
		tst.Errorf("expected zero penalty when nu==nuUndrained, got %g", kw)
	}
	kw2 := FluidBulkModulus(1e4, 0.3, 0.495)
	if kw2 <= 0 {
		tst.Errorf("expected positive penalty for compressible skeleton, got %g", kw2)
	}
}
