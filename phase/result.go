// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import "github.com/dpedroso/geoslope/fem"

// StepPoint is one accepted arc-length step's position along the
// equilibrium path.
type StepPoint struct {
	Lambda  float64 `json:"lambda"`
	MaxDisp float64 `json:"max_disp"`
}

// Result holds one phase's outcome: the converged (or best-effort, on
// failure) nodal displacement field and per-Gauss-point state, the
// step-point trace, and the continuation-path diagnostics.
type Result struct {
	PhaseName     string
	Success       bool
	FailedStep    int
	Reason        string
	ReachedLambda float64
	SigmaMsf      float64 // meaningful only for SafetyAnalysis phases
	U             []float64
	States        fem.ElementStates
	StepPoints    []StepPoint
}

// status is the internal outcome of one arc-length run, folded into a
// Result by the Driver.
type status struct {
	success       bool
	failedStep    int
	reason        string
	reachedLambda float64
}
