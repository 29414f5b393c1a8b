// Package config loads parameter sweeps from YAML.
package config

import (
	"math"
	"os"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fumin/isingchain"
	"github.com/fumin/isingchain/store"
)

// MaxExactLen is the longest chain swept by exact enumeration.
const MaxExactLen = 24

var validate = validator.New(validator.WithRequiredStructEnabled())

// Sweep is a grid of chain lengths and temperatures evaluated with one or more methods.
type Sweep struct {
	Lengths      []int     `yaml:"lengths" validate:"required,min=1,dive,min=1,max=62"`
	Temperatures []float64 `yaml:"temperatures" validate:"required,min=1,dive,gt=0"`
	J            float64   `yaml:"j"`
	U            float64   `yaml:"u"`
	// Samples is the number of Metropolis samples per chain.
	Samples int `yaml:"samples" validate:"min=1"`
	// Chains is the number of independent Metropolis chains.
	Chains int    `yaml:"chains" validate:"min=1"`
	Seed   uint64 `yaml:"seed"`
	// TimeAverage counts rejected proposals as repeated samples.
	TimeAverage bool `yaml:"time_average"`
	// MaxProposals bounds the proposals of each chain, 0 means unbounded.
	MaxProposals int      `yaml:"max_proposals" validate:"min=0"`
	Methods      []string `yaml:"methods" validate:"required,min=1,dive,oneof=exact metropolis transfer"`
}

// Point is a single evaluation of a Sweep.
type Point struct {
	Method string
	N      int
	T      float64
}

// Default returns temperatures log spaced around tcGuess, for chains of length 4 to 16.
// Metropolis time averages, since accept-only chains stall in the ground state at the lowest temperatures.
func Default() Sweep {
	// tcGuess is the temperature at which the heat capacity of the default parameters peaks.
	const tcGuess float64 = 2
	tcLog := math.Log10(tcGuess)
	tLogs := []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1}
	// Add negative logs.
	tLogsLen := len(tLogs)
	for i := range tLogsLen {
		tLogs = append(tLogs, -tLogs[i])
	}
	tLogs = append(tLogs, 0)
	slices.Sort(tLogs)

	temps := make([]float64, 0, len(tLogs))
	for _, tl := range tLogs {
		temps = append(temps, math.Pow(10, tcLog+tl))
	}

	p := isingchain.DefaultParams()
	cfg := Sweep{
		Lengths:      []int{4, 8, 12, 16},
		Temperatures: temps,
		J:            p.J,
		U:            p.U,
		Samples:      10000,
		Chains:       4,
		Seed:         1,
		TimeAverage:  true,
		MaxProposals: 10000000,
		Methods:      []string{store.MethodExact, store.MethodMetropolis, store.MethodTransfer},
	}
	return cfg
}

// Load reads a Sweep from a YAML file.
// Fields missing from the file keep their Default values.
func Load(path string) (Sweep, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Sweep{}, errors.Wrap(err, "")
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Sweep{}, errors.Wrap(err, path)
	}
	if err := cfg.Validate(); err != nil {
		return Sweep{}, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Validate checks the field ranges, and that exact enumeration is not asked of overly long chains.
func (cfg Sweep) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(err, "")
	}
	if slices.Contains(cfg.Methods, store.MethodExact) {
		for _, n := range cfg.Lengths {
			if n > MaxExactLen {
				return errors.Errorf("length %d too long for exact enumeration, max %d", n, MaxExactLen)
			}
		}
	}
	return nil
}

// Params returns the physical parameters of the sweep.
func (cfg Sweep) Params() isingchain.Params {
	return isingchain.Params{J: cfg.J, U: cfg.U}
}

// Points enumerates every method, length and temperature combination.
func (cfg Sweep) Points() []Point {
	points := make([]Point, 0, len(cfg.Methods)*len(cfg.Lengths)*len(cfg.Temperatures))
	for _, method := range cfg.Methods {
		for _, n := range cfg.Lengths {
			for _, t := range cfg.Temperatures {
				points = append(points, Point{Method: method, N: n, T: t})
			}
		}
	}
	return points
}

// Key returns the store key of p.
// MaxProposals is left out, as it only decides whether a chain fails and not the result of one that completes.
func (cfg Sweep) Key(p Point) store.Key {
	k := store.Key{Method: p.Method, N: p.N, T: p.T, J: cfg.J, U: cfg.U}
	if p.Method == store.MethodMetropolis {
		k.M = cfg.Samples
		k.Chains = cfg.Chains
		k.Seed = cfg.Seed
		if cfg.TimeAverage {
			k.Method = store.MethodMetropolisTimeAverage
		}
	}
	return k
}
