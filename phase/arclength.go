// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phase

import (
	"math"

	"github.com/dpedroso/geoslope/fem"
	"github.com/dpedroso/geoslope/inp"

	"github.com/cpmech/gosl/chk"
)

// reasonStalled marks an arc-length run that exhausted its step-size
// halvings without a converged increment. For a load-controlled phase
// this is plain non-convergence; for a strength-reduction analysis it is
// the normal terminal event (the failure surface has been located).
const reasonStalled = "arc-length step halved three times without convergence"

// stepBandLo and stepBandHi clamp the adapted arc length to a fixed band
// around the phase's initial step size.
const (
	stepBandLo = 1.0 / 64.0
	stepBandHi = 16.0
)

// runArcLength drives a system (plasticSystem or srmSystem) from lambda=0
// toward settings.MaxLoadFraction via spherical arc-length continuation,
// returning the phase's own cumulative displacement increment (relative
// to the phase's starting configuration), the final per-Gauss-point
// states, and the step trace. On failure, the returned displacement and
// states reflect the last accepted step, so downstream phases can still
// inherit the partial result.
func runArcLength(sys system, ndof int, settings inp.Settings, cancel CancelFunc, onStep func(StepPoint)) (u []float64, states fem.ElementStates, trace []StepPoint, st status) {
	u = make([]float64, ndof)
	states = sys.baseStates()
	lambda := 0.0
	l := settings.InitialStepSize
	psi := settings.ArcLengthPsi
	fref := sys.referenceMagnitude()
	if fref < 1e-12 {
		fref = 1
	}
	halvings := 0

	for step := 1; step <= settings.MaxSteps; step++ {
		if cancelled(cancel) {
			return u, states, trace, status{failedStep: step, reason: "cancelled", reachedLambda: lambda}
		}

		target := l
		if lambda+target > settings.MaxLoadFraction {
			target = settings.MaxLoadFraction - lambda
		}
		if target <= 1e-14 {
			return u, states, trace, status{success: true, reachedLambda: lambda}
		}

		du, dlambda, newStates, iters, ok, err := arcLengthStep(sys, u, lambda, target, psi, fref, settings, cancel)
		if err != nil {
			return u, states, trace, status{failedStep: step, reason: err.Error(), reachedLambda: lambda}
		}
		if !ok {
			halvings++
			if halvings > 3 {
				return u, states, trace, status{failedStep: step, reason: reasonStalled, reachedLambda: lambda}
			}
			l /= 2
			continue
		}
		halvings = 0
		for i := range u {
			u[i] += du[i]
		}
		lambda += dlambda
		states = newStates
		sp := StepPoint{Lambda: lambda, MaxDisp: maxNodalDisp(u)}
		trace = append(trace, sp)
		if onStep != nil {
			onStep(sp)
		}

		l = adaptStep(l, iters, settings)
		if lambda >= settings.MaxLoadFraction-1e-12 {
			return u, states, trace, status{success: true, reachedLambda: lambda}
		}
	}
	return u, states, trace, status{failedStep: settings.MaxSteps + 1, reason: "maximum step count exceeded", reachedLambda: lambda}
}

// adaptStep grows or shrinks the arc length from the corrector iteration
// count of the last accepted step: few iterations mean the step can grow
// by (maxDesired/iters)^0.5, too many shrink it by the same factor, and
// the result is clamped to a fixed band around the initial step size.
func adaptStep(l float64, iters int, settings inp.Settings) float64 {
	if iters < 1 {
		iters = 1
	}
	factor := math.Sqrt(float64(settings.MaxDesiredIterations) / float64(iters))
	switch {
	case iters <= settings.MinDesiredIterations:
		l *= factor
	case iters >= settings.MaxDesiredIterations:
		l *= factor
	}
	lo := settings.InitialStepSize * stepBandLo
	hi := settings.InitialStepSize * stepBandHi
	return math.Min(math.Max(l, lo), hi)
}

// arcLengthStep performs one spherical-arc-length predictor and its
// Newton corrector iterations. The bordered constraint is handled with
// two solves against the same factorized tangent, combined at the scalar
// level, so the hot-path linear solve stays the plain n-by-n system.
func arcLengthStep(sys system, uBase []float64, lambdaBase, l, psi, fref float64, settings inp.Settings, cancel CancelFunc) (du []float64, dlambda float64, states fem.ElementStates, iters int, ok bool, err error) {
	n := len(uBase)
	du = make([]float64, n)

	K, _, q, _, e := sys.evaluate(addVec(uBase, du), lambdaBase)
	if e != nil {
		err = e
		return
	}
	fz, e := factorize(K)
	if e != nil {
		err = e
		return
	}
	v1, e := fz.solve(q)
	fz.free()
	if e != nil {
		err = e
		return
	}
	denom := math.Sqrt(dot(v1, v1) + psi*psi*fref*fref)
	if denom < 1e-14 {
		err = chk.Err("phase: arc-length predictor is singular")
		return
	}
	dlambda = l / denom
	for i := range du {
		du[i] = dlambda * v1[i]
	}
	prevDu := append([]float64(nil), du...)

	for iter := 1; iter <= settings.MaxIterations; iter++ {
		if cancelled(cancel) {
			err = chk.Err("cancelled")
			return
		}
		K, r, q, trial, e := sys.evaluate(addVec(uBase, du), lambdaBase+dlambda)
		if e != nil {
			err = e
			return
		}
		if norm(r)/fref <= settings.Tolerance {
			states = trial
			iters = iter - 1
			ok = true
			return
		}

		fz, e := factorize(K)
		if e != nil {
			err = e
			return
		}
		v1, e = fz.solve(q)
		if e != nil {
			fz.free()
			err = e
			return
		}
		v2, e := fz.solve(r)
		fz.free()
		if e != nil {
			err = e
			return
		}

		A := make([]float64, n)
		for i := range A {
			A[i] = du[i] + v2[i]
		}
		a := dot(v1, v1) + psi*psi*fref*fref
		b := 2*dot(A, v1) + 2*psi*psi*fref*fref*dlambda
		c := dot(A, A) + psi*psi*fref*fref*dlambda*dlambda - l*l
		disc := b*b - 4*a*c
		if disc < 0 || math.Abs(a) < 1e-14 {
			ok = false
			return
		}
		sq := math.Sqrt(disc)
		dl1, dl2 := (-b+sq)/(2*a), (-b-sq)/(2*a)

		du1, du2 := make([]float64, n), make([]float64, n)
		for i := range du1 {
			du1[i] = A[i] + dl1*v1[i]
			du2[i] = A[i] + dl2*v1[i]
		}
		if dot(du1, prevDu) >= dot(du2, prevDu) {
			du, dlambda = du1, dlambda+dl1
		} else {
			du, dlambda = du2, dlambda+dl2
		}
		prevDu = append([]float64(nil), du...)
	}
	ok = false
	return
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(a []float64) float64 { return math.Sqrt(dot(a, a)) }

// maxNodalDisp returns the largest nodal displacement magnitude for the
// step-point trace. Equation numbering is fixed (ux,uy consecutive per
// node), so pairing up u by twos recovers per-node vectors without
// needing the Domain here.
func maxNodalDisp(u []float64) float64 {
	var best float64
	for i := 0; i+1 < len(u); i += 2 {
		d := math.Hypot(u[i], u[i+1])
		if d > best {
			best = d
		}
	}
	return best
}
