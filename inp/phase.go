// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import "github.com/cpmech/gosl/chk"

// PhaseKind selects the initialization and load-driving behavior of a
// phase.
type PhaseKind int

const (
	K0Procedure PhaseKind = iota
	GravityLoading
	Plastic
	SafetyAnalysis
)

func (k PhaseKind) String() string {
	switch k {
	case K0Procedure:
		return "k0-procedure"
	case GravityLoading:
		return "gravity-loading"
	case Plastic:
		return "plastic"
	case SafetyAnalysis:
		return "safety-analysis"
	}
	return "unknown"
}

// Phase holds one stage's input data: its kind, its parent in the phase
// tree, the active element/load/water sets, and any per-polygon material
// overrides.
type Phase struct {
	Name               string         `json:"name"`
	Kind               PhaseKind      `json:"kind"`
	Parent             string         `json:"parent"` // "" for root
	ActiveElements     []int          `json:"active_elements"` // polygon tags
	ActiveLoads        []string       `json:"active_loads"`    // load names
	ActiveWaterLevel   string         `json:"active_water_level"`
	MaterialOverrides  map[int]string `json:"material_overrides"` // polygon tag -> material name
	ResetDisplacements bool           `json:"reset_displacements"`
	Settings           *Settings      `json:"settings"` // nil => inherit defaults
}

// Settings holds the solver settings recognized at the external
// interface.
type Settings struct {
	Tolerance            float64 `json:"tolerance"`
	MaxIterations        int     `json:"max_iterations"`
	MinDesiredIterations int     `json:"min_desired_iterations"`
	MaxDesiredIterations int     `json:"max_desired_iterations"`
	InitialStepSize      float64 `json:"initial_step_size"`
	MaxLoadFraction      float64 `json:"max_load_fraction"`
	MaxSteps             int     `json:"max_steps"`
	ArcLengthPsi         float64 `json:"arc_length_psi"` // 0 => cylindrical arc-length
}

// DefaultSettings returns the default solver settings. SafetyAnalysis
// phases default MaxLoadFraction much higher (effectively unbounded)
// since the strength-reduction factor is not capped the way a Plastic
// phase's load factor is.
func DefaultSettings(kind PhaseKind) Settings {
	maxLoadFraction := 0.5
	if kind == SafetyAnalysis {
		maxLoadFraction = 1e6
	}
	return Settings{
		Tolerance:            0.01,
		MaxIterations:        60,
		MinDesiredIterations: 3,
		MaxDesiredIterations: 15,
		InitialStepSize:      0.05,
		MaxLoadFraction:      maxLoadFraction,
		MaxSteps:             100,
		ArcLengthPsi:         0,
	}
}

// Resolved returns this phase's settings, falling back to
// DefaultSettings(kind) for any zero-valued field.
func (p *Phase) Resolved() Settings {
	d := DefaultSettings(p.Kind)
	if p.Settings == nil {
		return d
	}
	s := *p.Settings
	if s.Tolerance == 0 {
		s.Tolerance = d.Tolerance
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = d.MaxIterations
	}
	if s.MinDesiredIterations == 0 {
		s.MinDesiredIterations = d.MinDesiredIterations
	}
	if s.MaxDesiredIterations == 0 {
		s.MaxDesiredIterations = d.MaxDesiredIterations
	}
	if s.InitialStepSize == 0 {
		s.InitialStepSize = d.InitialStepSize
	}
	if s.MaxLoadFraction == 0 {
		s.MaxLoadFraction = d.MaxLoadFraction
	}
	if s.MaxSteps == 0 {
		s.MaxSteps = d.MaxSteps
	}
	return s
}

// ValidateTree checks the phase-tree invariants: unique names, an
// acyclic parent relation, K0/Gravity phases only as roots, and
// SafetyAnalysis phases locked to their parent's active sets.
func ValidateTree(phases []Phase) error {
	byName := make(map[string]*Phase, len(phases))
	for i := range phases {
		p := &phases[i]
		if _, dup := byName[p.Name]; dup {
			return chk.Err("inp: duplicate phase name %q", p.Name)
		}
		byName[p.Name] = p
	}
	for i := range phases {
		p := &phases[i]
		if p.Parent == "" {
			continue
		}
		if _, ok := byName[p.Parent]; !ok {
			return chk.Err("inp: phase %q references unknown parent %q", p.Name, p.Parent)
		}
		// acyclicity: walk parents, bail out if we revisit a name
		seen := map[string]bool{p.Name: true}
		cur := p.Parent
		for cur != "" {
			if seen[cur] {
				return chk.Err("inp: phase tree has a cycle at %q", p.Name)
			}
			seen[cur] = true
			parent, ok := byName[cur]
			if !ok {
				break
			}
			cur = parent.Parent
		}
		if p.Kind == K0Procedure || p.Kind == GravityLoading {
			return chk.Err("inp: phase %q: K0/Gravity phases may only be roots", p.Name)
		}
		if p.Kind == SafetyAnalysis {
			parent := byName[p.Parent]
			p.ActiveElements = parent.ActiveElements
			p.ActiveLoads = parent.ActiveLoads
			p.ActiveWaterLevel = parent.ActiveWaterLevel
		}
	}
	return nil
}
