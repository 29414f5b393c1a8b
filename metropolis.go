package isingchain

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// Sample is the result of a Metropolis run.
type Sample struct {
	Observables
	// Proposals is the number of single spin flips proposed.
	Proposals int
	// Accepted is the number of proposals accepted.
	Accepted int
}

// AcceptanceRate returns Accepted / Proposals, or 1 if nothing was proposed.
func (s Sample) AcceptanceRate() float64 {
	if s.Proposals == 0 {
		return 1
	}
	return float64(s.Accepted) / float64(s.Proposals)
}

// MetropolisOptions are options for the Metropolis sampler.
type MetropolisOptions struct {
	timeAverage  bool
	maxProposals int
	ctx          context.Context
}

// NewMetropolisOptions returns the default sampler options:
// accept-only accumulation, no proposal limit, and no cancellation.
func NewMetropolisOptions() MetropolisOptions {
	opt := MetropolisOptions{}
	opt.ctx = context.Background()
	return opt
}

// TimeAverage sets whether a rejected proposal counts the current configuration again.
//
// By default only accepted configurations are accumulated and a rejection does not advance the sample count.
// This differs from the textbook Metropolis-Hastings time average, which TimeAverage(true) selects.
func (opt MetropolisOptions) TimeAverage(b bool) MetropolisOptions {
	opt.timeAverage = b
	return opt
}

// MaxProposals limits the number of proposals, 0 means no limit.
func (opt MetropolisOptions) MaxProposals(k int) MetropolisOptions {
	opt.maxProposals = k
	return opt
}

// Context sets a context which is checked between proposals.
func (opt MetropolisOptions) Context(ctx context.Context) MetropolisOptions {
	opt.ctx = ctx
	return opt
}

// Metropolis estimates the observables at temperature t from m samples of a single spin flip Markov chain.
// The chain starts from a random configuration and is left at the last accepted configuration.
func (c *SpinChain) Metropolis(t float64, m int, p Params, options ...MetropolisOptions) (Sample, error) {
	opt := NewMetropolisOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if err := checkTemperature(t); err != nil {
		return Sample{}, errors.Wrap(err, "")
	}
	if m < 1 {
		return Sample{}, errors.Wrapf(ErrDomain, "sample size %d", m)
	}
	ctx := opt.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := c.Randomize(); err != nil {
		return Sample{}, errors.Wrap(err, "")
	}
	eCur := Energy(c.spins, p)
	mCur := float64(Magnetization(c.spins))
	var sums moments
	sums.add(1, eCur, mCur)

	var s Sample
	for j := 1; j < m; {
		if s.Proposals%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return s, errors.Wrap(err, "")
			}
		}
		if opt.maxProposals > 0 && s.Proposals >= opt.maxProposals {
			return s, errors.Wrapf(ErrNotConverged, "%d/%d samples after %d proposals", j, m, s.Proposals)
		}

		site := c.flip()
		s.Proposals++
		eCand := Energy(c.spins, p)
		dE := eCand - eCur

		if dE < 0 || c.rng.Float64() < math.Exp(-dE/t) {
			s.Accepted++
			eCur = eCand
			mCur = float64(Magnetization(c.spins))
			sums.add(1, eCur, mCur)
			j++
			continue
		}

		c.toggle(site)
		if opt.timeAverage {
			sums.add(1, eCur, mCur)
			j++
		}
	}

	s.Observables = sums.observables(float64(m), t)
	return s, nil
}
