// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solid

import (
	"math"

	"github.com/dpedroso/geoslope/mdl/porous"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
)

// MohrCoulomb implements the Mohr-Coulomb elasto-plastic model with
// associated or non-associated flow: yield
//
//	F(sigma') = (s1-s3)/2 + (s1+s3)/2*sin(phi) - c*cos(phi)
//
// in principal effective stresses s1>=s2>=s3 (tension-positive). Flow
// potential uses psi (dilation) in place of phi.
type MohrCoulomb struct {
	E, Nu        float64
	C, Phi, Psi  float64 // cohesion, friction angle, dilation angle (radians)
	drainage     Drainage
	lambda, G, K float64
	Kw           float64
}

func newMohrCoulomb(drainage Drainage, prms fun.Prms) (*MohrCoulomb, error) {
	E, ok := prm(prms, "E")
	if !ok {
		return nil, chk.Err("solid: mohr-coulomb model requires parameter %q", "E")
	}
	nu, ok := prm(prms, "nu")
	if !ok {
		return nil, chk.Err("solid: mohr-coulomb model requires parameter %q", "nu")
	}
	if err := checkPoisson(drainage, nu); err != nil {
		return nil, err
	}

	var c, phiDeg, psiDeg float64
	switch drainage {
	case UndrainedB:
		su, ok := prm(prms, "su")
		if !ok {
			return nil, chk.Err("solid: undrained-b mohr-coulomb requires parameter %q", "su")
		}
		c = su
		phiDeg, psiDeg = 0, 0
	case UndrainedC:
		su, ok := prm(prms, "su")
		if !ok {
			return nil, chk.Err("solid: undrained-c mohr-coulomb requires parameter %q", "su")
		}
		c = su
		phiDeg, psiDeg = 0, 0
	default:
		var okc, okphi bool
		c, okc = prm(prms, "c")
		phiDeg, okphi = prm(prms, "phi")
		if !okc || !okphi {
			return nil, chk.Err("solid: mohr-coulomb model requires parameters %q and %q", "c", "phi")
		}
		psiDeg, _ = prm(prms, "psi") // defaults to 0 (no dilation) if absent
	}
	if psiDeg > phiDeg {
		return nil, chk.Err("solid: dilation angle psi=%g must not exceed friction angle phi=%g", psiDeg, phiDeg)
	}

	o := &MohrCoulomb{
		E: E, Nu: nu,
		C: c, Phi: phiDeg * math.Pi / 180, Psi: psiDeg * math.Pi / 180,
		drainage: drainage,
	}
	o.lambda, o.G = lameFromEν(E, nu)
	o.K = bulkFromEν(E, nu)
	if drainage == UndrainedA || drainage == UndrainedB {
		o.Kw = porous.FluidBulkModulus(E, nu, undrainedNu)
	}
	return o, nil
}

func (o *MohrCoulomb) Drainage() Drainage { return o.drainage }

func (o *MohrCoulomb) Tangent(s *State) [3][3]float64 {
	D := planeStrainD(o.lambda, o.G)
	if o.Kw > 0 {
		D[0][0] += o.Kw
		D[0][1] += o.Kw
		D[1][0] += o.Kw
		D[1][1] += o.Kw
	}
	return D
}

// Update advances the state from a strain increment: the skeleton's
// effective stress moves by the effective-parameter elastic trial and is
// then return-mapped onto the yield surface; the excess pore pressure
// moves by the fluid bulk modulus times the (total) volumetric strain
// increment, independent of plastic correction.
func (o *MohrCoulomb) Update(s *State, deps [3]float64, dEpsZZ float64) error {
	dVol := deps[0] + deps[1] + dEpsZZ
	var dExcess float64
	if o.Kw > 0 {
		dExcess = porous.ExcessIncrement(o.Kw, dVol)
	}

	D := planeStrainD(o.lambda, o.G)
	ds := mulD(D, deps)
	eff := s.Effective()
	effTrial := Stress{
		Sxx: eff.Sxx + ds[0],
		Syy: eff.Syy + ds[1],
		Szz: eff.Szz + o.lambda*(deps[0]+deps[1]) + (o.lambda+2*o.G)*dEpsZZ,
		Sxy: eff.Sxy + ds[2],
	}

	p1, p2, p3, dirs := principal(effTrial)
	result, dEpsPNorm, yielded, err := o.returnMap(p1, p2, p3)
	if err != nil {
		return err
	}

	effNew := fromPrincipal(result, dirs)
	pTot := s.PWPSteady + s.PWPExcess + dExcess
	s.Sig = Stress{
		Sxx: effNew.Sxx + pTot,
		Syy: effNew.Syy + pTot,
		Szz: effNew.Szz + pTot,
		Sxy: effNew.Sxy,
	}
	s.PWPExcess += dExcess
	s.Yielded = yielded
	s.EpsPAcc += dEpsPNorm
	return nil
}

// yieldF evaluates F(s1,s3) = (s1-s3)/2 + (s1+s3)/2*sin(phi) - c*cos(phi).
func (o *MohrCoulomb) yieldF(s1, s3 float64) float64 {
	return (s1-s3)/2 + (s1+s3)/2*math.Sin(o.Phi) - o.C*math.Cos(o.Phi)
}

// coefficients P,Q,R,D of the closed-form single-plane return: the
// plastic corrector to principal stresses for a plane with "max" index i
// and "min" index j is
//
//	sigma_i -= P*dGamma; sigma_j += R*dGamma; sigma_k += Q*dGamma
func (o *MohrCoulomb) planeCoeffs() (P, Q, R, Denom float64) {
	sinPsi := math.Sin(o.Psi)
	sinPhi := math.Sin(o.Phi)
	P = 2*o.G*(1+sinPsi/3) + 2*o.K*sinPsi
	R = 2*o.G*(1-sinPsi/3) - 2*o.K*sinPsi
	Q = (4*o.G/3)*sinPsi - 2*o.K*sinPsi
	Denom = 2*o.G*(1+sinPhi*sinPsi/3) + 2*o.K*sinPhi*sinPsi
	return
}

// returnMap performs the elastic check and, if needed, the main-plane or
// corner return mapping, given the trial principal effective stresses
// already sorted p1>=p2>=p3. It
// returns the corrected (possibly reordered) principal stresses, the norm
// of the plastic-strain increment, and whether plastic correction was
// applied.
func (o *MohrCoulomb) returnMap(p1, p2, p3 float64) (out [3]float64, dEpsPNorm float64, yielded bool, err error) {
	Ftrial := o.yieldF(p1, p3)
	if Ftrial <= 1e-12*math.Max(1, o.C*math.Cos(o.Phi)) {
		return [3]float64{p1, p2, p3}, 0, false, nil
	}

	P, Q, R, Denom := o.planeCoeffs()
	if math.Abs(Denom) < 1e-14 {
		return [3]float64{p1, p2, p3}, 0, false, chk.Err("solid: mohr-coulomb return mapping is singular (check phi, psi, E, nu)")
	}

	// main-plane return (indices: i=1(max)=p1, j=3(min)=p3, k=2=p2)
	dGamma := Ftrial / Denom
	s1 := p1 - P*dGamma
	s2 := p2 + Q*dGamma
	s3 := p3 + R*dGamma

	if s1 >= s2 && s2 >= s3 {
		dEpsPNorm = math.Abs(dGamma) * math.Sqrt(2.0/3.0) * flowNormFactor(o.Psi)
		return [3]float64{s1, s2, s3}, dEpsPNorm, true, nil
	}

	// ordering violated: fall back to the nearest corner, preferring the
	// compressive corner when both edges are violated.
	tensileViolated := s2 > s1     // edge sigma1==sigma2
	compressiveViolated := s3 > s2 // edge sigma2==sigma3

	useCompressive := compressiveViolated
	if tensileViolated && compressiveViolated {
		useCompressive = true // tie-break: prefer compressive corner
	} else if tensileViolated && !compressiveViolated {
		useCompressive = false
	}

	var g1, g2, g3 float64
	if useCompressive {
		g1, g2, g3, err = o.compressiveCorner(p1, p2, p3, P, Q, R, Denom, Ftrial)
	} else {
		g1, g2, g3, err = o.tensileCorner(p1, p2, p3, P, Q, R, Denom, Ftrial)
	}
	if err != nil {
		return [3]float64{p1, p2, p3}, 0, false, err
	}
	dEpsPNorm = math.Sqrt(2.0/3.0) * flowNormFactor(o.Psi) * (math.Abs(g1-p1) + math.Abs(g3-p3))
	return [3]float64{g1, g2, g3}, dEpsPNorm, true, nil
}

// flowNormFactor is a representative scale for the plastic flow-vector
// magnitude, used to build an accumulated-plastic-strain norm
// proportional to |dGamma| (the exact flow-rule direction is
// dG/dsigma = (1+sin(psi), 0, -(1-sin(psi))) up to the index
// permutation of the active plane).
func flowNormFactor(psi float64) float64 {
	a := 1 + math.Sin(psi)
	b := 1 - math.Sin(psi)
	return math.Sqrt(a*a + b*b)
}

// tensileCorner returns principal stresses on the edge sigma1==sigma2,
// using the two-vector (Koiter) return between the main plane (1,3) and
// the adjacent plane (2,3).
func (o *MohrCoulomb) tensileCorner(p1, p2, p3, P, Q, R, Denom, FtrialMain float64) (s1, s2, s3 float64, err error) {
	sinPhi := math.Sin(o.Phi)
	FtrialB := o.yieldF(p2, p3)
	cross := ((Q - R) + (Q+R)*sinPhi) / 2
	gx, gy, e := solve2x2(-Denom, cross, cross, -Denom, -FtrialMain, -FtrialB)
	if e != nil {
		return p1, p2, p3, e
	}
	s1 = p1 - P*gx + Q*gy
	s2 = p2 + Q*gx - P*gy
	s3 = p3 + R*gx + R*gy
	return
}

// compressiveCorner returns principal stresses on the edge
// sigma2==sigma3, using the two-vector return between the main plane
// (1,3) and the adjacent plane (1,2).
func (o *MohrCoulomb) compressiveCorner(p1, p2, p3, P, Q, R, Denom, FtrialMain float64) (s1, s2, s3 float64, err error) {
	sinPhi := math.Sin(o.Phi)
	FtrialC := o.yieldF(p1, p2)
	cross := ((-P - Q) + (Q-P)*sinPhi) / 2
	gx, gz, e := solve2x2(-Denom, cross, cross, -Denom, -FtrialMain, -FtrialC)
	if e != nil {
		return p1, p2, p3, e
	}
	s1 = p1 - P*gx - P*gz
	s2 = p2 + Q*gx + R*gz
	s3 = p3 + R*gx + Q*gz
	return
}

// solve2x2 solves [[a,b],[c,d]]*[x;y] = [e;f].
func solve2x2(a, b, c, d, e, f float64) (x, y float64, err error) {
	det := a*d - b*c
	if math.Abs(det) < 1e-14 {
		return 0, 0, chk.Err("solid: corner-return 2x2 system is singular")
	}
	x = (e*d - b*f) / det
	y = (a*f - e*c) / det
	return
}

// principal decomposes the plane-strain effective stress tensor into
// three sorted principal stresses (descending, p1>=p2>=p3) plus enough
// information (the in-plane rotation angle, as sine/cosine, and which
// slot szz landed in) to reconstruct the full tensor after return
// mapping via fromPrincipal.
type principalDirs struct {
	cos2, sin2 float64 // in-plane principal rotation
	zIndex     int     // sorted slot occupied by szz
}

func principal(s Stress) (p1, p2, p3 float64, dirs principalDirs) {
	avg := (s.Sxx + s.Syy) / 2
	diff := (s.Sxx - s.Syy) / 2
	radius := math.Hypot(diff, s.Sxy)
	inPlaneMax := avg + radius
	inPlaneMin := avg - radius
	if radius > 1e-14 {
		dirs.cos2 = diff / radius
		dirs.sin2 = s.Sxy / radius
	} else {
		dirs.cos2, dirs.sin2 = 1, 0
	}

	vals := [3]float64{inPlaneMax, s.Szz, inPlaneMin}
	zSlot := 1
	// insertion sort (3 elements) descending, tracking szz's final slot
	idx := [3]int{0, 1, 2}
	for i := 1; i < 3; i++ {
		for j := i; j > 0 && vals[idx[j]] > vals[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	for slot, originalIdx := range idx {
		if originalIdx == 1 {
			zSlot = slot
		}
	}
	dirs.zIndex = zSlot
	sorted := [3]float64{vals[idx[0]], vals[idx[1]], vals[idx[2]]}
	return sorted[0], sorted[1], sorted[2], dirs
}

// fromPrincipal reconstructs the plane-strain stress tensor from the
// (possibly corrected) sorted principal stresses and the directions
// captured by principal(). szz is taken directly from whichever sorted
// slot it originally occupied; the in-plane pair is rotated back using
// the stored cos(2*theta)/sin(2*theta).
func fromPrincipal(p [3]float64, dirs principalDirs) Stress {
	szz := p[dirs.zIndex]
	var inPlane [2]float64
	k := 0
	for i := 0; i < 3; i++ {
		if i == dirs.zIndex {
			continue
		}
		inPlane[k] = p[i]
		k++
	}
	pMax, pMin := inPlane[0], inPlane[1]
	avg := (pMax + pMin) / 2
	radius := (pMax - pMin) / 2
	return Stress{
		Sxx: avg + radius*dirs.cos2,
		Syy: avg - radius*dirs.cos2,
		Sxy: radius * dirs.sin2,
		Szz: szz,
	}
}
