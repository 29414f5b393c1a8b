package isingchain

import (
	"fmt"
)

// Params are the physical parameters of the Hamiltonian.
type Params struct {
	// J is the nearest neighbour coupling.
	J float64
	// U is the external field strength.
	U float64
}

// DefaultParams returns J=-2 and U=1.1.
func DefaultParams() Params {
	return Params{J: -2, U: 1.1}
}

// Observables are thermal averages of a chain.
type Observables struct {
	Energy         float64
	Magnetization  float64
	HeatCapacity   float64
	Susceptibility float64
}

func (o Observables) String() string {
	return fmt.Sprintf("E=%g m=%g C=%g chi=%g", o.Energy, o.Magnetization, o.HeatCapacity, o.Susceptibility)
}

// Magnetization returns 2*(number of up spins) - len(spins).
func Magnetization(spins []byte) int {
	return 2*ups(spins) - len(spins)
}

// Energy returns the Hamiltonian of spins under p with periodic boundary.
// The field term is U*m, and each pair (i, i+1 mod n) contributes -J if the spins are equal and +J otherwise.
func Energy(spins []byte, p Params) float64 {
	n := len(spins)
	energy := p.U * float64(2*ups(spins)-n)
	for i, spin := range spins {
		switch spins[(i+1)%n] {
		case spin:
			energy += -p.J
		default:
			energy += p.J
		}
	}
	return energy
}

func ups(spins []byte) int {
	var n int
	for _, s := range spins {
		if s == 1 {
			n++
		}
	}
	return n
}

// moments accumulates weighted sums of energy and magnetization.
type moments struct {
	weight float64
	e      float64
	ee     float64
	m      float64
	mm     float64
}

func (s *moments) add(w, e, m float64) {
	s.weight += w
	s.e += w * e
	s.ee += w * (e * e)
	s.m += w * m
	s.mm += w * (m * m)
}

// observables normalizes the sums by z at temperature t.
func (s *moments) observables(z, t float64) Observables {
	e := s.e / z
	ee := s.ee / z
	m := s.m / z
	mm := s.mm / z

	var o Observables
	o.Energy = e
	o.Magnetization = m
	o.HeatCapacity = (ee - e*e) / (t * t)
	o.Susceptibility = (mm - m*m) / t
	return o
}
