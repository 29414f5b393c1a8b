// Package isingchain simulates a one dimensional Ising spin chain with periodic boundary
// under an external field and nearest neighbour coupling.
//
// Thermal observables are estimated by exact enumeration over all 2^N configurations,
// by Metropolis sampling, or in closed form through the transfer matrix.
package isingchain

import (
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"
)

// SpinChain is a chain of n spins, each either 0 (down) or 1 (up).
// A SpinChain is not safe for concurrent use.
type SpinChain struct {
	n        int
	maxIndex uint64

	// spins is nil until the chain is initialized.
	spins []byte
	rng   *rand.Rand
}

// New creates a chain of length n whose random draws come from rng.
// A nil rng is replaced by a randomly seeded PCG.
func New(n int, rng *rand.Rand) (*SpinChain, error) {
	if err := checkLen(n); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c := &SpinChain{n: n, maxIndex: 1 << n, rng: rng}
	return c, nil
}

// Len returns the number of spins.
func (c *SpinChain) Len() int { return c.n }

// MaxIndex returns the number of configurations 2^n.
func (c *SpinChain) MaxIndex() uint64 { return c.maxIndex }

// Spins returns a copy of the current configuration, or nil if the chain is uninitialized.
func (c *SpinChain) Spins() []byte {
	return slices.Clone(c.spins)
}

// Int returns the integer encoding of the current configuration.
func (c *SpinChain) Int() (uint64, error) {
	if err := c.checkInit(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return Encode(c.spins), nil
}

// SetInt sets the configuration to the binary representation of v, zero padded to the chain length.
func (c *SpinChain) SetInt(v uint64) ([]byte, error) {
	if v >= c.maxIndex {
		return nil, errors.Wrapf(ErrRange, "%d >= %d", v, c.maxIndex)
	}
	c.spins = Decode(c.spins, c.n, v)
	return c.Spins(), nil
}

// Randomize sets the configuration to a uniformly drawn integer in [0, 2^n).
func (c *SpinChain) Randomize() ([]byte, error) {
	spins, err := c.SetInt(c.rng.Uint64N(c.maxIndex))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return spins, nil
}

// SetSigns sets the configuration from a string of '+' (up) and '-' (down).
// The string must have exactly Len characters, use ParseSigns to decode strings of any length.
// On error the previous configuration is kept.
func (c *SpinChain) SetSigns(s string) ([]byte, error) {
	spins, err := ParseSigns(s)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if len(spins) != c.n {
		return nil, errors.Wrapf(ErrFormat, "length %d of %q, expected %d", len(spins), s, c.n)
	}
	c.spins = spins
	return c.Spins(), nil
}

// FlipRandomSite toggles the spin at a uniformly drawn site and returns the site.
// The mutated configuration is available from Spins.
func (c *SpinChain) FlipRandomSite() (int, error) {
	if err := c.checkInit(); err != nil {
		return -1, errors.Wrap(err, "")
	}
	return c.flip(), nil
}

func (c *SpinChain) flip() int {
	site := c.rng.IntN(c.n)
	c.toggle(site)
	return site
}

func (c *SpinChain) toggle(site int) {
	c.spins[site] ^= 1
}

// Magnetization returns the magnetization of the current configuration.
func (c *SpinChain) Magnetization() (int, error) {
	if err := c.checkInit(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return Magnetization(c.spins), nil
}

// Hamiltonian returns the energy of the current configuration.
func (c *SpinChain) Hamiltonian(p Params) (float64, error) {
	if err := c.checkInit(); err != nil {
		return 0, errors.Wrap(err, "")
	}
	return Energy(c.spins, p), nil
}

func (c *SpinChain) checkInit() error {
	if len(c.spins) != c.n {
		return errors.Wrap(ErrDomain, "uninitialized chain")
	}
	return nil
}
