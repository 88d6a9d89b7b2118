// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"fmt"

	"github.com/dpedroso/geoslope/fem"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/porous"
	"github.com/dpedroso/geoslope/mdl/solid"
	"github.com/dpedroso/geoslope/shp"

	"github.com/cpmech/gosl/chk"
)

// Driver executes a project's phase tree depth-first. One Domain (dof
// numbering) is shared by every phase, while each phase builds its own
// Assembler over its own active element set.
type Driver struct {
	Project *inp.Project
	Dom     *fem.Domain
	Cancel  CancelFunc
	Emit    func(Event)

	results map[string]*Result
}

// NewDriver builds a Driver from an already-validated Project.
func NewDriver(p *inp.Project) (*Driver, error) {
	dom, err := fem.NewDomain(&p.Mesh)
	if err != nil {
		return nil, err
	}
	return &Driver{Project: p, Dom: dom, results: make(map[string]*Result)}, nil
}

func (d *Driver) emit(ev Event) {
	if d.Emit != nil {
		d.Emit(ev)
	}
}

// RunAll executes every phase in depth-first order: roots in file order,
// each root's descendants before the next root.
func (d *Driver) RunAll() ([]*Result, error) {
	var out []*Result
	for _, name := range d.Project.Roots() {
		if err := d.runSubtree(name, &out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Driver) runSubtree(name string, out *[]*Result) error {
	res, err := d.RunPhase(name)
	if err != nil {
		return err
	}
	*out = append(*out, res)
	for _, child := range d.Project.Children(name) {
		if err := d.runSubtree(child, out); err != nil {
			return err
		}
	}
	return nil
}

// RunPhase executes a single named phase; its parent (if any) must
// already have run. Failure inside the arc-length continuation does not
// return an error -- it is recorded on the Result (success=false) so
// downstream phases still run, inheriting the failed state.
func (d *Driver) RunPhase(name string) (*Result, error) {
	ph, ok := d.Project.PhaseByName(name)
	if !ok {
		return nil, chk.Err("phase: unknown phase %q", name)
	}
	d.emit(Event{Kind: "log", Phase: name, Message: fmt.Sprintf("starting phase %q (%s)", name, ph.Kind)})

	var parent *Result
	var parentPhase inp.Phase
	if ph.Parent != "" {
		parent, ok = d.results[ph.Parent]
		if !ok {
			return nil, chk.Err("phase: parent %q of phase %q has not run yet", ph.Parent, name)
		}
		parentPhase, _ = d.Project.PhaseByName(ph.Parent)
	}

	active := fem.NewActiveSet(&d.Project.Mesh, ph.ActiveElements)
	materials, err := resolveMaterials(&d.Project.Mesh, d.Project.Materials, active, ph)
	if err != nil {
		return nil, err
	}
	models, err := resolveModels(materials)
	if err != nil {
		return nil, err
	}
	asm, err := fem.NewAssembler(d.Dom, active, models)
	if err != nil {
		return nil, err
	}
	floating := asm.FloatingNodes()
	if len(floating) > 0 {
		d.emit(Event{Kind: "log", Phase: name, Message: fmt.Sprintf("%d floating node(s) regularized and clamped to the inherited displacement", len(floating))})
	}
	clampFloating := func(du []float64) {
		for _, nid := range floating {
			du[d.Dom.EqUx(nid)], du[d.Dom.EqUy(nid)] = 0, 0
		}
	}

	var water porous.Table
	if ph.ActiveWaterLevel != "" {
		water = d.Project.WaterLevels[ph.ActiveWaterLevel].Table()
	}

	res := &Result{PhaseName: name}
	settings := ph.Resolved()
	onStep := func(sp StepPoint) {
		d.emit(Event{Kind: "step_point", Phase: name, Lambda: sp.Lambda, MaxDisp: sp.MaxDisp})
	}

	switch ph.Kind {
	case inp.K0Procedure:
		res.States = initGeostaticStates(&d.Project.Mesh, asm, materials, water, nil)
		res.U = make([]float64, d.Dom.NDof)
		res.Success = true
		res.ReachedLambda = 1

	case inp.GravityLoading:
		base := initZeroStressStates(asm, water)
		dFext := gravityForce(asm, materials, water, nil)
		loadsF := asm.ExternalForce(d.loadsFor(ph.ActiveLoads))
		for i := range dFext {
			dFext[i] += loadsF[i]
		}
		sys, err := newPlasticSystem(asm, base, dFext)
		if err != nil {
			return nil, err
		}
		du, states, trace, st := runArcLength(sys, d.Dom.NDof, settings, d.Cancel, onStep)
		clampFloating(du)
		fillPlasticResult(res, make([]float64, d.Dom.NDof), du, states, trace, st)

	case inp.Plastic:
		// Elements active in the parent (or any earlier ancestor, for
		// re-activation) inherit that state; elements never active in
		// this branch start from the geostatic field.
		base := make(fem.ElementStates, len(active))
		newIDs := make(map[int]bool)
		for id := range active {
			if st, ok := d.ancestorState(ph.Parent, id); ok {
				base[id] = st
			} else {
				newIDs[id] = true
			}
		}
		for id, st := range initGeostaticStates(&d.Project.Mesh, asm, materials, water, newIDs) {
			base[id] = st
		}
		if parent != nil && ph.ActiveWaterLevel != parentPhase.ActiveWaterLevel {
			rebaseSteadyPWP(asm, base, water, newIDs)
		}
		u0 := make([]float64, d.Dom.NDof)
		if parent != nil && !ph.ResetDisplacements {
			copy(u0, parent.U)
		}
		// The phase's external action is the diff against the parent:
		// self-weight of newly activated elements plus newly activated
		// loads minus deactivated ones.
		dFext := gravityForce(asm, materials, water, newIDs)
		loadsF := asm.ExternalForce(d.loadsFor(ph.ActiveLoads))
		var parentLoadsF []float64
		if parent != nil {
			parentLoadsF = asm.ExternalForce(d.loadsFor(parentPhase.ActiveLoads))
		}
		for i := range dFext {
			dFext[i] += loadsF[i]
			if parentLoadsF != nil {
				dFext[i] -= parentLoadsF[i]
			}
		}
		if norm(dFext) < 1e-12 {
			// Nothing drives the continuation: the phase is a no-op in
			// equilibrium terms and converges trivially.
			res.U = u0
			res.States = base
			res.Success = true
			res.ReachedLambda = settings.MaxLoadFraction
			break
		}
		sys, err := newPlasticSystem(asm, base, dFext)
		if err != nil {
			return nil, err
		}
		du, states, trace, st := runArcLength(sys, d.Dom.NDof, settings, d.Cancel, onStep)
		clampFloating(du)
		fillPlasticResult(res, u0, du, states, trace, st)

	case inp.SafetyAnalysis:
		base := make(fem.ElementStates, len(active))
		if parent != nil {
			for id := range active {
				base[id] = parent.States[id]
			}
		}
		u0 := make([]float64, d.Dom.NDof)
		if parent != nil {
			copy(u0, parent.U)
		}
		zero := make([]float64, d.Dom.NDof)
		_, fext0, _, err := asm.Assemble(base, zero)
		if err != nil {
			return nil, err
		}
		pinned := fem.PinnedFromBoundary(d.Dom, asm.BC)
		sys := newSRMSystem(d.Dom, active, materials, base, fext0, pinned)
		du, states, trace, st := runArcLength(sys, d.Dom.NDof, settings, d.Cancel, onStep)
		clampFloating(du)
		res.U = addVec(u0, du)
		res.States = states
		res.StepPoints = trace
		res.FailedStep = st.failedStep
		res.ReachedLambda = st.reachedLambda
		res.SigmaMsf = 1 + st.reachedLambda
		switch {
		case st.success:
			// The continuation hit the reduction-factor cap without the
			// mechanism failing.
			res.Success = true
			res.Reason = "no failure within the reduction-factor cap"
		case st.reason == reasonStalled:
			// The stall locates the failure surface; the last SigmaMsf
			// with a converged equilibrium is the factor of safety.
			res.Success = true
			res.Reason = "failure mechanism located"
		default:
			res.Success = false
			res.Reason = st.reason
		}
	}

	d.results[name] = res
	d.emit(Event{Kind: "phase_result", Phase: name, Success: res.Success})
	return res, nil
}

// fillPlasticResult folds a plasticSystem arc-length run into res,
// shared by gravity-loading and plastic phases.
func fillPlasticResult(res *Result, u0, du []float64, states fem.ElementStates, trace []StepPoint, st status) {
	res.U = addVec(u0, du)
	res.States = states
	res.StepPoints = trace
	res.Success = st.success
	res.FailedStep = st.failedStep
	res.Reason = st.reason
	res.ReachedLambda = st.reachedLambda
}

// ancestorState returns element id's last committed per-Gauss-point
// state along the ancestor chain starting at phase name, walking
// rootward. ok is false if the element was never active in this branch.
func (d *Driver) ancestorState(name string, id int) (st [shp.NumIps]solid.State, ok bool) {
	for name != "" {
		if res, exists := d.results[name]; exists {
			if s, has := res.States[id]; has {
				return s, true
			}
		}
		ph, exists := d.Project.PhaseByName(name)
		if !exists {
			break
		}
		name = ph.Parent
	}
	return st, false
}

// rebaseSteadyPWP recomputes the steady pore-water pressure of inherited
// states against a new water table, keeping the excess component. skip
// marks elements already initialized against the new table.
func rebaseSteadyPWP(asm *fem.Assembler, states fem.ElementStates, water porous.Table, skip map[int]bool) {
	for _, id := range asm.Order() {
		if skip != nil && skip[id] {
			continue
		}
		st, ok := states[id]
		if !ok {
			continue
		}
		for ip, pos := range asm.Elems[id].GPPositions() {
			st[ip].PWPSteady = water.Steady(pos[0], pos[1])
		}
		states[id] = st
	}
}

func (d *Driver) loadsFor(names []string) []*inp.Load {
	var out []*inp.Load
	for _, name := range names {
		if l, ok := d.Project.Loads[name]; ok {
			out = append(out, l)
		}
	}
	return out
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}
