// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/dpedroso/geoslope/mdl/porous"

	"github.com/cpmech/gosl/chk"
)

// WaterLevel is an ordered polyline defining a piecewise-linear phreatic
// surface.
type WaterLevel struct {
	Name   string      `json:"name"`
	Points [][2]float64 `json:"points"`
}

// Validate checks the polyline is non-empty and x-ordered.
func (w *WaterLevel) Validate() error {
	if len(w.Points) == 0 {
		return chk.Err("inp: water level %q has no points", w.Name)
	}
	for i := 1; i < len(w.Points); i++ {
		if w.Points[i][0] < w.Points[i-1][0] {
			return chk.Err("inp: water level %q points must be ordered by increasing x", w.Name)
		}
	}
	return nil
}

// Table converts this water level to the porous.Table representation the
// pore-pressure engine operates on.
func (w *WaterLevel) Table() porous.Table {
	t := porous.Table{X: make([]float64, len(w.Points)), Y: make([]float64, len(w.Points))}
	for i, p := range w.Points {
		t.X[i], t.Y[i] = p[0], p[1]
	}
	return t
}

// PointLoad is a concentrated force at a world position, mapped to the
// nearest mesh node by the assembler if the mesher did not assign one.
type PointLoad struct {
	X, Y   float64
	Fx, Fy float64
	NodeID *int // assigned node, or nil if the assembler must map it
}

// LineLoad is a force per unit length distributed along the segment
// between two endpoints.
type LineLoad struct {
	X1, Y1, X2, Y2 float64
	Fx, Fy         float64 // per unit length
}

// Load is a stable-identity point or line load; the identity is what
// phases reference in their active-load sets.
type Load struct {
	Name  string     `json:"name"`
	Point *PointLoad `json:"point"`
	Line  *LineLoad  `json:"line"`
}

// Validate checks exactly one of Point/Line is set.
func (l *Load) Validate() error {
	if (l.Point == nil) == (l.Line == nil) {
		return chk.Err("inp: load %q must set exactly one of point or line", l.Name)
	}
	return nil
}
