package isingchain

import (
	"github.com/pkg/errors"
)

var (
	// ErrRange is returned for integer encodings or lengths outside their valid range.
	ErrRange = errors.New("out of range")
	// ErrFormat is returned for sign strings with characters other than '+' and '-'.
	ErrFormat = errors.New("bad format")
	// ErrDomain is returned for non-positive temperatures, non-positive sample sizes,
	// and operations on a chain whose spins have not been initialized.
	ErrDomain = errors.New("outside domain")
	// ErrNotConverged is returned when the sampler exhausts its proposal budget.
	ErrNotConverged = errors.New("not converged")
)
