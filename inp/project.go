// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"encoding/json"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// ProjectVersion is the only project-file schema version this core
// understands; any other version is rejected right after the JSON is
// decoded, before any validation.
const ProjectVersion = "1"

// ProjectFile is the on-disk JSON shape of the versioned project format:
// mesh, materials, loads, water levels, phase tree, and settings.
type ProjectFile struct {
	Version     string       `json:"version"`
	Nodes       []Node       `json:"nodes"`
	Elements    []Element    `json:"elements"`
	Boundary    map[int]int  `json:"boundary"` // node ID -> BoundaryKind, JSON-friendly int form
	Materials   []Material   `json:"materials"`
	WaterLevels []WaterLevel `json:"water_levels"`
	Loads       []Load       `json:"loads"`
	Phases      []Phase      `json:"phases"`
}

// Project is the parsed, validated, cross-referenced form of a
// ProjectFile, ready to hand to phase.Driver.
type Project struct {
	Mesh        Mesh
	Materials   map[string]*Material
	WaterLevels map[string]*WaterLevel
	Loads       map[string]*Load
	Phases      []Phase
}

// LoadProject reads and validates a project file; unknown versions are
// fatal before any solving.
func LoadProject(path string) (*Project, error) {
	b, err := io.ReadFile(path)
	if err != nil {
		return nil, chk.Err("inp: cannot read project file %q: %v", path, err)
	}
	var pf ProjectFile
	if err := json.Unmarshal(b, &pf); err != nil {
		return nil, chk.Err("inp: cannot parse project file %q: %v", path, err)
	}
	return FromProjectFile(&pf)
}

// FromProjectFile validates and cross-references an already-parsed
// ProjectFile, separated from LoadProject so callers (and tests) can
// build a Project in-memory without touching the filesystem.
func FromProjectFile(pf *ProjectFile) (*Project, error) {
	if pf.Version != ProjectVersion {
		return nil, chk.Err("inp: unknown project version %q (expected %q)", pf.Version, ProjectVersion)
	}

	mesh := Mesh{Nodes: pf.Nodes, Elements: pf.Elements}
	if pf.Boundary != nil {
		mesh.Boundary = make(map[int]BoundaryKind, len(pf.Boundary))
		for nid, k := range pf.Boundary {
			mesh.Boundary[nid] = BoundaryKind(k)
		}
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}

	mats := make(map[string]*Material, len(pf.Materials))
	for i := range pf.Materials {
		m := &pf.Materials[i]
		if err := m.Validate(); err != nil {
			return nil, err
		}
		mats[m.Name] = m
	}
	for _, e := range mesh.Elements {
		if _, ok := mats[e.MaterialID]; !ok {
			return nil, chk.Err("inp: element %d references unknown material %q", e.ID, e.MaterialID)
		}
	}

	waters := make(map[string]*WaterLevel, len(pf.WaterLevels))
	for i := range pf.WaterLevels {
		w := &pf.WaterLevels[i]
		if err := w.Validate(); err != nil {
			return nil, err
		}
		waters[w.Name] = w
	}

	loads := make(map[string]*Load, len(pf.Loads))
	for i := range pf.Loads {
		l := &pf.Loads[i]
		if err := l.Validate(); err != nil {
			return nil, err
		}
		loads[l.Name] = l
	}

	if err := ValidateTree(pf.Phases); err != nil {
		return nil, err
	}
	for _, p := range pf.Phases {
		for _, matName := range p.MaterialOverrides {
			if _, ok := mats[matName]; !ok {
				return nil, chk.Err("inp: phase %q material override references unknown material %q", p.Name, matName)
			}
		}
		if p.ActiveWaterLevel != "" {
			if _, ok := waters[p.ActiveWaterLevel]; !ok {
				return nil, chk.Err("inp: phase %q references unknown water level %q", p.Name, p.ActiveWaterLevel)
			}
		}
		for _, loadName := range p.ActiveLoads {
			if _, ok := loads[loadName]; !ok {
				return nil, chk.Err("inp: phase %q references unknown load %q", p.Name, loadName)
			}
		}
	}

	return &Project{
		Mesh:        mesh,
		Materials:   mats,
		WaterLevels: waters,
		Loads:       loads,
		Phases:      pf.Phases,
	}, nil
}

// PhaseByName returns the phase with the given name, or ok=false.
func (p *Project) PhaseByName(name string) (Phase, bool) {
	for _, ph := range p.Phases {
		if ph.Name == name {
			return ph, true
		}
	}
	return Phase{}, false
}

// Children returns the names of phases whose parent is name, in file
// order, for depth-first traversal by cmd/geoslope.
func (p *Project) Children(name string) []string {
	var out []string
	for _, ph := range p.Phases {
		if ph.Parent == name {
			out = append(out, ph.Name)
		}
	}
	return out
}

// Roots returns the names of phases with no parent.
func (p *Project) Roots() []string {
	var out []string
	for _, ph := range p.Phases {
		if ph.Parent == "" {
			out = append(out, ph.Name)
		}
	}
	return out
}
