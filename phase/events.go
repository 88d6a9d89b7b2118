// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

// Event is one line of the Driver's progress stream, mirrored onto
// cmd/geoslope's newline-delimited protocol: a log message, an accepted
// step point, or a finished phase.
type Event struct {
	Kind    string // "log", "step_point", "phase_result"
	Phase   string
	Message string
	Lambda  float64
	MaxDisp float64
	Success bool
}

// CancelFunc polls an external cancellation token: checked once before
// each step's predictor and once before each Newton iteration, never
// mid-linear-solve.
type CancelFunc func() bool

// cancelled is a nil-safe helper for an optional CancelFunc.
func cancelled(c CancelFunc) bool {
	return c != nil && c()
}
