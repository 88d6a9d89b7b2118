// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"math"
	"testing"

	"github.com/dpedroso/geoslope/fem"
	"github.com/dpedroso/geoslope/inp"
	"github.com/dpedroso/geoslope/mdl/solid"

	"github.com/cpmech/gosl/fun"
)

// twoElementMesh builds a 2x1 rectangle split into two T6 triangles
// sharing the diagonal, one per polygon tag: tag 1 is the ground, tag 2
// is a fill layer added in a later phase.
func twoElementMesh(tst *testing.T) *inp.Mesh {
	mesh := &inp.Mesh{
		Nodes: []inp.Node{
			{ID: 1, X: 0, Y: 0}, {ID: 2, X: 2, Y: 0}, {ID: 3, X: 2, Y: 1}, {ID: 4, X: 0, Y: 1},
			{ID: 5, X: 1, Y: 0.5},
			{ID: 6, X: 1, Y: 0},
			{ID: 7, X: 2, Y: 0.5},
			{ID: 8, X: 1, Y: 1},
			{ID: 9, X: 0, Y: 0.5},
		},
		Elements: []inp.Element{
			{ID: 1, Nodes: [6]int{1, 2, 3, 6, 7, 5}, PolygonTag: 1, MaterialID: "soil"},
			{ID: 2, Nodes: [6]int{1, 3, 4, 5, 8, 9}, PolygonTag: 2, MaterialID: "soil"},
		},
	}
	if err := mesh.Validate(); err != nil {
		tst.Fatalf("mesh validation failed: %v", err)
	}
	return mesh
}

// stagedProject builds a staged-construction phase tree over
// twoElementMesh, all linear-elastic (whose elastic tangent and trial
// stress use the identical formula, so a single arc-length Newton
// iteration has exactly zero residual -- guaranteed convergence,
// independent of step size). Two sibling children of "fill" apply the
// same surcharge, one with reset_displacements and one without, so the
// reset semantics can be checked by comparing the branches.
func stagedProject(tst *testing.T) *inp.Project {
	mesh := twoElementMesh(tst)
	mat := &inp.Material{
		Name: "soil", Model: "linear-elastic", Drainage: "drained",
		Prms:     fun.Prms{{N: "E", V: 1e4}, {N: "nu", V: 0.3}},
		GammaSat: 18, GammaUns: 16,
	}
	return &inp.Project{
		Mesh:      *mesh,
		Materials: map[string]*inp.Material{"soil": mat},
		Loads: map[string]*inp.Load{
			"surcharge": {Name: "surcharge", Point: &inp.PointLoad{X: 1, Y: 1, Fy: -10}}, // node 8, the free top-edge mid-node
		},
		WaterLevels: map[string]*inp.WaterLevel{},
		Phases: []inp.Phase{
			{Name: "ground", Kind: inp.K0Procedure, ActiveElements: []int{1}},
			{Name: "fill", Kind: inp.Plastic, Parent: "ground", ActiveElements: []int{1, 2}},
			{Name: "loaded", Kind: inp.Plastic, Parent: "fill", ActiveElements: []int{1, 2}, ActiveLoads: []string{"surcharge"}},
			{Name: "loaded-reset", Kind: inp.Plastic, Parent: "fill", ActiveElements: []int{1, 2}, ActiveLoads: []string{"surcharge"}, ResetDisplacements: true},
		},
	}
}

// Test_staged_construction checks staged-construction bookkeeping:
// the active-element count never decreases along a branch, and
// reset_displacements zeroes the reported displacement baseline while
// leaving the stress response untouched (the two surcharge branches end
// at the same stress state, and their displacement fields differ by
// exactly the parent's accumulated field).
func Test_staged_construction(tst *testing.T) {
	proj := stagedProject(tst)
	drv, err := NewDriver(proj)
	if err != nil {
		tst.Fatalf("NewDriver: %v", err)
	}
	results, err := drv.RunAll()
	if err != nil {
		tst.Fatalf("RunAll: %v", err)
	}
	if len(results) != 4 {
		tst.Fatalf("expected 4 phase results, got %d", len(results))
	}
	byName := make(map[string]*Result, len(results))
	for _, r := range results {
		byName[r.PhaseName] = r
		if !r.Success {
			tst.Errorf("phase %q: expected success, got failure: %s", r.PhaseName, r.Reason)
		}
	}
	ground, fill := byName["ground"], byName["fill"]
	loaded, reset := byName["loaded"], byName["loaded-reset"]

	if len(ground.States) > len(fill.States) {
		tst.Errorf("active-element count decreased from %q (%d) to %q (%d)", ground.PhaseName, len(ground.States), fill.PhaseName, len(fill.States))
	}
	if len(fill.States) != len(loaded.States) {
		tst.Errorf("expected same active-element count for %q and %q, got %d vs %d", fill.PhaseName, loaded.PhaseName, len(fill.States), len(loaded.States))
	}

	// reset removes exactly the inherited baseline: U_noreset = U_parent + U_reset
	for i := range loaded.U {
		want := fill.U[i] + reset.U[i]
		if math.Abs(loaded.U[i]-want) > 1e-10 {
			tst.Errorf("dof %d: expected reset branch to differ from non-reset by the parent field only, got %g vs %g", i, loaded.U[i], want)
			break
		}
	}
	// ...and does not touch the stress response.
	for id, st := range loaded.States {
		rst, ok := reset.States[id]
		if !ok {
			tst.Errorf("element %d missing from reset branch's state", id)
			continue
		}
		for ip := range st {
			if math.Abs(rst[ip].Sig.Syy-st[ip].Sig.Syy) > 1e-10 || math.Abs(rst[ip].Sig.Sxx-st[ip].Sig.Sxx) > 1e-10 {
				tst.Errorf("element %d gp %d: expected identical stress across reset/non-reset branches, got %v vs %v", id, ip, rst[ip].Sig, st[ip].Sig)
			}
		}
	}
}

// Test_noop_phase_trivially_converges checks that a child phase changing
// neither the active set nor the loads succeeds without any arc-length
// steps: there is no external action to drive.
func Test_noop_phase_trivially_converges(tst *testing.T) {
	proj := stagedProject(tst)
	proj.Phases = append(proj.Phases, inp.Phase{
		Name: "noop", Kind: inp.Plastic, Parent: "loaded",
		ActiveElements: []int{1, 2}, ActiveLoads: []string{"surcharge"},
	})
	drv, err := NewDriver(proj)
	if err != nil {
		tst.Fatalf("NewDriver: %v", err)
	}
	if _, err := drv.RunAll(); err != nil {
		tst.Fatalf("RunAll: %v", err)
	}
	noop := drv.results["noop"]
	if noop == nil {
		tst.Fatal("expected the no-op phase to have run")
	}
	if !noop.Success {
		tst.Errorf("expected trivial convergence for a no-op phase, got failure: %s", noop.Reason)
	}
	if len(noop.StepPoints) != 0 {
		tst.Errorf("expected no steps for a no-op phase, got %d", len(noop.StepPoints))
	}
	loaded := drv.results["loaded"]
	for i := range noop.U {
		if noop.U[i] != loaded.U[i] {
			tst.Errorf("expected a no-op phase to carry the parent displacement through, dof %d: %g vs %g", i, noop.U[i], loaded.U[i])
			break
		}
	}
}

// mcMaterial builds a Mohr-Coulomb material for the strength-reduction
// tests below.
func mcMaterial(c, phiDeg, psiDeg float64) *inp.Material {
	return &inp.Material{
		Name: "mc", Model: "mohr-coulomb", Drainage: "drained",
		Prms:     fun.Prms{{N: "E", V: 1e4}, {N: "nu", V: 0.3}, {N: "c", V: c}, {N: "phi", V: phiDeg}, {N: "psi", V: psiDeg}},
		GammaSat: 18, GammaUns: 16,
	}
}

// Test_scaled_model_strength_decreases checks the strength-reduction
// parameter scaling: both c and phi strictly decrease as the reduction
// factor increases above 1.
func Test_scaled_model_strength_decreases(tst *testing.T) {
	mat := mcMaterial(10, 30, 10)
	m1, err := scaledModel(mat, 1)
	if err != nil {
		tst.Fatalf("scaledModel(1): %v", err)
	}
	m2, err := scaledModel(mat, 2)
	if err != nil {
		tst.Fatalf("scaledModel(2): %v", err)
	}
	mc1, mc2 := m1.(*solid.MohrCoulomb), m2.(*solid.MohrCoulomb)
	if mc2.C >= mc1.C {
		tst.Errorf("expected cohesion to decrease with the reduction factor, got c(1)=%g c(2)=%g", mc1.C, mc2.C)
	}
	if mc2.Phi >= mc1.Phi {
		tst.Errorf("expected friction angle to decrease with the reduction factor, got phi(1)=%g phi(2)=%g", mc1.Phi, mc2.Phi)
	}
	if mc1.C != 10 {
		tst.Errorf("expected an unscaled cohesion at reduction factor 1, got %g", mc1.C)
	}
}

// srmFixtureAtYield builds a single-element srmSystem whose uniform
// Gauss-point effective stress sits on the yield surface at reduction
// factor 1 up to the rounding of sigma1 (F(sigma1,sigma3) is about
// -1.3e-4 for the given c, phi): reducing strength
// at a state already at yield produces an immediate, nonzero plastic
// correction, which is what gives the arc-length predictor a nonzero
// sensitivity q to drive on.
func srmFixtureAtYield(tst *testing.T) *srmSystem {
	mesh := singleTriangleMesh(tst)
	dom, err := fem.NewDomain(mesh)
	if err != nil {
		tst.Fatalf("NewDomain: %v", err)
	}
	active := fem.NewActiveSet(mesh, []int{1})
	mat := mcMaterial(5, 30, 0)
	model, err := mat.NewModel()
	if err != nil {
		tst.Fatalf("NewModel: %v", err)
	}
	asm, err := fem.NewAssembler(dom, active, map[int]solid.Model{1: model})
	if err != nil {
		tst.Fatalf("NewAssembler: %v", err)
	}

	// on the Mohr-Coulomb yield surface for c=5, phi=30deg: sigma1=2.44,
	// sigma2(=szz)=-5, sigma3=-10 (Sxy=0, so Sxx/Syy/Szz are already the
	// principal values).
	at := solid.State{Sig: solid.Stress{Sxx: 2.44, Szz: -5, Syy: -10, Sxy: 0}}
	base := fem.ElementStates{1: [3]solid.State{at, at, at}}

	zero := make([]float64, dom.NDof)
	_, fext0, _, err := asm.Assemble(base, zero)
	if err != nil {
		tst.Fatalf("Assemble: %v", err)
	}
	pinned := fem.PinnedFromBoundary(dom, asm.BC)
	materials := map[int]*inp.Material{1: mat}
	return newSRMSystem(dom, active, materials, base, fext0, pinned)
}

// Test_srm_sensitivity_at_yield checks that srmSystem.evaluate produces
// a near-zero residual at reduction factor 1 (fext0 is exactly the
// internal force there) and a nonzero load-direction vector q -- the
// arc-length predictor's v1=K^-1*q would be flagged as singular if the
// base state were still comfortably elastic.
func Test_srm_sensitivity_at_yield(tst *testing.T) {
	sys := srmFixtureAtYield(tst)
	n := sys.dom.NDof
	zero := make([]float64, n)

	_, r0, q0, _, err := sys.evaluate(zero, 0)
	if err != nil {
		tst.Fatalf("evaluate(lambda=0): %v", err)
	}
	if norm(r0) > 1e-6*sys.referenceMagnitude() {
		tst.Errorf("expected a near-zero residual at reduction factor 1, got norm %g", norm(r0))
	}
	if norm(q0) <= 1e-9 {
		tst.Errorf("expected a nonzero strength-reduction sensitivity at a state already on the yield surface, got %v", q0)
	}
}
