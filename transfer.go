package isingchain

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// sigmas are the spin values of the transfer matrix rows and columns, up first.
var sigmas = [2]float64{1, -1}

// Transfer computes the observables of a chain of length n at temperature t in closed form.
//
// The partition function is Z = Tr(T^n) for the 2x2 transfer matrix
// T[s][s'] = exp(-(U(s+s')/2 - J s s')/t), s, s' in {+1, -1}.
// Energy and heat capacity are derivatives of ln Z in 1/t,
// magnetization and susceptibility are derivatives of ln Z in U,
// both evaluated by central finite differences.
// Unlike Exact, the cost does not depend on n.
func Transfer(n int, t float64, p Params) (Observables, error) {
	if err := checkLen(n); err != nil {
		return Observables{}, errors.Wrap(err, "")
	}
	if err := checkTemperature(t); err != nil {
		return Observables{}, errors.Wrap(err, "")
	}

	// fd needs plain functions, so the first failure is kept aside.
	var lnzErr error
	lnZ := func(beta float64, p Params) float64 {
		v, err := logPartition(n, beta, p)
		if err != nil && lnzErr == nil {
			lnzErr = err
		}
		return v
	}
	lnZBeta := func(beta float64) float64 { return lnZ(beta, p) }
	lnZU := func(u float64) float64 { return lnZ(1/t, Params{J: p.J, U: u}) }

	beta := 1 / t
	first := &fd.Settings{Formula: fd.Central}
	second := &fd.Settings{Formula: fd.Central2nd}

	var o Observables
	// <E> = -d lnZ/d beta, Var(E) = d^2 lnZ/d beta^2.
	o.Energy = -fd.Derivative(lnZBeta, beta, first)
	varE := fd.Derivative(lnZBeta, beta, second)
	o.HeatCapacity = varE / (t * t)
	// <m> = -t d lnZ/du, Var(m) = t^2 d^2 lnZ/du^2.
	o.Magnetization = -t * fd.Derivative(lnZU, p.U, first)
	o.Susceptibility = t * fd.Derivative(lnZU, p.U, second)
	if lnzErr != nil {
		return Observables{}, errors.Wrap(lnzErr, "")
	}
	return o, nil
}

// logPartition returns ln Tr(T^n) at inverse temperature beta.
func logPartition(n int, beta float64, p Params) (float64, error) {
	// Factor out the largest exponent so that the matrix entries stay finite.
	var exponents [2][2]float64
	shift := math.Inf(-1)
	for i, si := range sigmas {
		for j, sj := range sigmas {
			exponents[i][j] = -beta * (p.U*(si+sj)/2 - p.J*si*sj)
			shift = max(shift, exponents[i][j])
		}
	}
	tm := mat.NewSymDense(2, nil)
	for i := range sigmas {
		for j := i; j < len(sigmas); j++ {
			tm.SetSym(i, j, math.Exp(exponents[i][j]-shift))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(tm, false); !ok {
		return math.NaN(), errors.Errorf("eigen factorization failed %v", mat.Formatted(tm))
	}
	// Values are in ascending order.
	vals := eig.Values(nil)
	lambda0, lambda1 := vals[1], vals[0]

	ratio := math.Pow(lambda1/lambda0, float64(n))
	return float64(n)*(shift+math.Log(lambda0)) + math.Log1p(ratio), nil
}
