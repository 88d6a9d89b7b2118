// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"github.com/dpedroso/geoslope/fem"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/porous"
	"github.com/dpedroso/geoslope/mdl/solid"
	"github.com/dpedroso/geoslope/shp"

	"github.com/cpmech/gosl/chk"
)

// resolveMaterials maps every active element to its resolved material,
// applying the phase's polygon-tag material overrides.
func resolveMaterials(mesh *inp.Mesh, materials map[string]*inp.Material, active fem.ActiveSet, phase inp.Phase) (map[int]*inp.Material, error) {
	out := make(map[int]*inp.Material, len(active))
	for _, e := range mesh.Elements {
		if !active[e.ID] {
			continue
		}
		name := e.MaterialID
		if override, ok := phase.MaterialOverrides[e.PolygonTag]; ok {
			name = override
		}
		mat, ok := materials[name]
		if !ok {
			return nil, chk.Err("phase: element %d resolves to unknown material %q", e.ID, name)
		}
		out[e.ID] = mat
	}
	return out, nil
}

func matOfFunc(materials map[int]*inp.Material) func(int) *inp.Material {
	return func(id int) *inp.Material { return materials[id] }
}

// resolveModels builds one solid.Model per distinct material name and
// fans it out to every element using it.
func resolveModels(materials map[int]*inp.Material) (map[int]solid.Model, error) {
	cache := make(map[string]solid.Model, len(materials))
	out := make(map[int]solid.Model, len(materials))
	for eid, mat := range materials {
		m, ok := cache[mat.Name]
		if !ok {
			var err error
			m, err = mat.NewModel()
			if err != nil {
				return nil, err
			}
			cache[mat.Name] = m
		}
		out[eid] = m
	}
	return out, nil
}

// gravityForce assembles the global self-weight force vector. only is a
// filter (nil means every active element) used to introduce a
// newly-placed layer's self-weight without double-counting elements
// whose weight an ancestor phase already reacted.
func gravityForce(asm *fem.Assembler, materials map[int]*inp.Material, water porous.Table, only map[int]bool) []float64 {
	f := make([]float64, asm.Dom.NDof)
	for _, id := range asm.Order() {
		if only != nil && !only[id] {
			continue
		}
		mat := materials[id]
		gamma := func(x, y float64) float64 {
			if isNonPorous(mat) {
				return mat.Gamma
			}
			if y >= water.Elevation(x) {
				return mat.GammaUns
			}
			return mat.GammaSat
		}
		fe := asm.Elems[id].BodyForce(gamma)
		dmap := asm.DofMap(asm.Cells[id])
		for i, gi := range dmap {
			f[gi] += fe[i]
		}
	}
	asm.ZeroPinned(f)
	return f
}

// initGeostaticStates builds the K0-procedure initial state for every
// active element (used directly by a K0Procedure phase, and to
// initialize newly-activated elements in a Plastic phase).
func initGeostaticStates(mesh *inp.Mesh, asm *fem.Assembler, materials map[int]*inp.Material, water porous.Table, only map[int]bool) fem.ElementStates {
	bands := buildBands(mesh, asm.Active, matOfFunc(materials))
	states := make(fem.ElementStates, len(asm.Order()))
	for _, id := range asm.Order() {
		if only != nil && !only[id] {
			continue
		}
		el := asm.Elems[id]
		k0 := materials[id].K0Value()
		var st [shp.NumIps]solid.State
		for ip, pos := range el.GPPositions() {
			st[ip] = geostaticState(bands, pos[0], pos[1], k0, water)
		}
		states[id] = st
	}
	return states
}

// initZeroStressStates builds a zero-total-stress (hydrostatic PWP only)
// initial state for every active element: the starting point of a
// gravity-loading solve.
func initZeroStressStates(asm *fem.Assembler, water porous.Table) fem.ElementStates {
	states := make(fem.ElementStates, len(asm.Order()))
	for _, id := range asm.Order() {
		el := asm.Elems[id]
		var st [shp.NumIps]solid.State
		for ip, pos := range el.GPPositions() {
			st[ip] = solid.State{PWPSteady: water.Steady(pos[0], pos[1])}
		}
		states[id] = st
	}
	return states
}
