// Copyright 2015 Dorival Pedroso and Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package porous

// FluidBulkModulus returns the bulk modulus of the pore fluid implied by
// a near-incompressible effective skeleton. Kw is derived so that the
// combined (skeleton+fluid) Poisson's ratio matches the drainage
// variant's near-incompressible target (nu -> 0.495, UndrainedB/C) while
// the skeleton alone uses the effective (E,nu) pair: the classic
// relation Kw = K_u - K' with K_u, K' the undrained/effective bulk
// moduli from the same E but the undrained and drained Poisson ratios.
func FluidBulkModulus(E, nuEffective, nuUndrained float64) float64 {
	Ku := E / (3 * (1 - 2*nuUndrained))
	Kprime := E / (3 * (1 - 2*nuEffective))
	if Ku <= Kprime {
		return 0
	}
	return Ku - Kprime
}

// ExcessIncrement computes the excess pore-water pressure increment at an
// integration point: the fluid bulk modulus Kw times the volumetric
// strain increment dVol. Volumetric compression (dVol<0 under this
// tension-positive convention) raises the excess PWP.
func ExcessIncrement(Kw, dVol float64) float64 {
	return -Kw * dVol
}
