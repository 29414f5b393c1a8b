package isingchain

import (
	"context"
	"math"
	"slices"

	"github.com/pkg/errors"
)

const (
	// ctxCheckInterval is the number of states or proposals between context checks.
	ctxCheckInterval = 1 << 12
)

// Exact computes the observables at temperature t by summing Boltzmann weights over every configuration.
//
// The cost is O(2^n * n), exponential in the chain length: each extra spin doubles the running time.
// Lengths beyond about 30 are impractical, use Transfer instead.
//
// The chain is left at the last enumerated configuration, 2^n-1.
func (c *SpinChain) Exact(t float64, p Params) (Observables, error) {
	return c.ExactContext(context.Background(), t, p)
}

// ExactContext is Exact with cancellation checked between configurations.
// On cancellation the previous configuration is restored.
func (c *SpinChain) ExactContext(ctx context.Context, t float64, p Params) (Observables, error) {
	if err := checkTemperature(t); err != nil {
		return Observables{}, errors.Wrap(err, "")
	}
	prev := slices.Clone(c.spins)

	// Weights are taken relative to the ground energy so that they never all underflow at low temperature.
	eMin := math.Inf(1)
	for i, state := range States(c.n) {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return Observables{}, errors.Wrap(err, "")
			}
		}
		eMin = min(eMin, Energy(state, p))
	}

	var sums moments
	for i := range c.maxIndex {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				c.spins = prev
				return Observables{}, errors.Wrap(err, "")
			}
		}
		c.spins = Decode(c.spins, c.n, i)
		m := Magnetization(c.spins)
		e := Energy(c.spins, p)
		w := math.Exp(-(e - eMin) / t)
		sums.add(w, e, float64(m))
	}

	return sums.observables(sums.weight, t), nil
}

// Exact computes the observables of a chain of length n without keeping a SpinChain around.
func Exact(ctx context.Context, n int, t float64, p Params) (Observables, error) {
	c, err := New(n, nil)
	if err != nil {
		return Observables{}, errors.Wrap(err, "")
	}
	obs, err := c.ExactContext(ctx, t, p)
	if err != nil {
		return Observables{}, errors.Wrap(err, "")
	}
	return obs, nil
}

func checkTemperature(t float64) error {
	// The negated comparison also rejects NaN.
	if !(t > 0) {
		return errors.Wrapf(ErrDomain, "temperature %v", t)
	}
	return nil
}
