package isingchain

import (
	"github.com/pkg/errors"
)

const (
	// MaxLen is the longest chain whose configurations can be indexed by a uint64.
	MaxLen = 62
)

// Decode writes the width n binary representation of v into spins, most significant bit first.
// spins is resized to n.
func Decode(spins []byte, n int, v uint64) []byte {
	spins = spins[:0]
	for i := n - 1; i >= 0; i-- {
		spins = append(spins, byte(v>>i&1))
	}
	return spins
}

// Encode is the inverse of Decode.
func Encode(spins []byte) uint64 {
	var v uint64
	for _, s := range spins {
		v = v<<1 | uint64(s&1)
	}
	return v
}

// States iterates over all 2^n configurations in increasing integer order.
// The yielded slice is reused between iterations.
func States(n int) func(yield func(uint64, []byte) bool) {
	state := make([]byte, n)
	return func(yield func(uint64, []byte) bool) {
		numStates := uint64(1) << n
		for i := range numStates {
			state = Decode(state, n, i)
			if !yield(i, state) {
				return
			}
		}
	}
}

// ParseSigns translates '+' to 1 and '-' to 0.
// Any other character rejects the whole string.
func ParseSigns(s string) ([]byte, error) {
	spins := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '+':
			spins = append(spins, 1)
		case '-':
			spins = append(spins, 0)
		default:
			return nil, errors.Wrapf(ErrFormat, "%q at %d in %q", s[i], i, s)
		}
	}
	return spins, nil
}

// FormatSigns is the inverse of ParseSigns.
func FormatSigns(spins []byte) string {
	b := make([]byte, len(spins))
	for i, s := range spins {
		switch s {
		case 1:
			b[i] = '+'
		default:
			b[i] = '-'
		}
	}
	return string(b)
}

func checkLen(n int) error {
	if n < 1 || n > MaxLen {
		return errors.Wrapf(ErrRange, "length %d not in [1, %d]", n, MaxLen)
	}
	return nil
}
