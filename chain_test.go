package isingchain

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats/scalar"
)

func TestSpinChain(t *testing.T) {
	t.Parallel()
	c, err := New(8, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if c.Len() != 8 {
		t.Fatalf("%d, expected %d", c.Len(), 8)
	}
	if c.MaxIndex() != 256 {
		t.Fatalf("%d, expected %d", c.MaxIndex(), 256)
	}

	spins, err := c.SetInt(10)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if expected := []byte{0, 0, 0, 0, 1, 0, 1, 0}; !slices.Equal(spins, expected) {
		t.Fatalf("%v, expected %v", spins, expected)
	}
	m, err := c.Magnetization()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if m != -4 {
		t.Fatalf("%d, expected %d", m, -4)
	}
	e, err := c.Hamiltonian(DefaultParams())
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !scalar.EqualWithinAbsOrRel(e, -4.4, 1e-12, 1e-12) {
		t.Fatalf("%v, expected %v", e, -4.4)
	}
	v, err := c.Int()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if v != 10 {
		t.Fatalf("%d, expected %d", v, 10)
	}
}

func TestNewRange(t *testing.T) {
	t.Parallel()
	for _, n := range []int{-1, 0, MaxLen + 1} {
		if _, err := New(n, nil); !errors.Is(err, ErrRange) {
			t.Fatalf("%d %+v", n, err)
		}
	}
}

func TestDecodeEncode(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 10; n++ {
		t.Run(fmt.Sprintf("%d", n), func(t *testing.T) {
			t.Parallel()
			var count uint64
			for i, state := range States(n) {
				if len(state) != n {
					t.Fatalf("%d %v", i, state)
				}
				if v := Encode(state); v != i {
					t.Fatalf("%v %d, expected %d", state, v, i)
				}
				count++
			}
			if count != 1<<n {
				t.Fatalf("%d, expected %d", count, 1<<n)
			}
		})
	}
}

func TestSetIntRange(t *testing.T) {
	t.Parallel()
	c, err := New(4, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := c.SetInt(5); err != nil {
		t.Fatalf("%+v", err)
	}
	for _, v := range []uint64{16, 17, 1 << 40} {
		if _, err := c.SetInt(v); !errors.Is(err, ErrRange) {
			t.Fatalf("%d %+v", v, err)
		}
	}
	if spins := c.Spins(); !slices.Equal(spins, []byte{0, 1, 0, 1}) {
		t.Fatalf("%v", spins)
	}
}

func TestSetSigns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		s     string
		spins []byte
		err   error
	}{
		{s: "++-+---+--+", spins: []byte{1, 1, 0, 1, 0, 0, 0, 1, 0, 0, 1}},
		{s: "-----------", spins: []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		// An invalid character anywhere rejects the whole string, a prefix is never returned.
		{s: "++-+--3+--+", err: ErrFormat},
		{s: "7++++++++++", err: ErrFormat},
		{s: "++++++++++x", err: ErrFormat},
		{s: "++-", err: ErrFormat},
		{s: "", err: ErrFormat},
	}
	for _, test := range tests {
		t.Run(test.s, func(t *testing.T) {
			t.Parallel()
			c, err := New(11, nil)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			prev, err := c.SetInt(1234)
			if err != nil {
				t.Fatalf("%+v", err)
			}

			spins, err := c.SetSigns(test.s)
			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Fatalf("%+v, expected %v", err, test.err)
				}
				if spins != nil {
					t.Fatalf("%v", spins)
				}
				if got := c.Spins(); !slices.Equal(got, prev) {
					t.Fatalf("%v, expected %v", got, prev)
				}
				return
			}
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if !slices.Equal(spins, test.spins) {
				t.Fatalf("%v, expected %v", spins, test.spins)
			}
			if s := FormatSigns(spins); s != test.s {
				t.Fatalf("%s, expected %s", s, test.s)
			}
		})
	}
}

func TestParseSigns(t *testing.T) {
	t.Parallel()
	spins, err := ParseSigns("+-+")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !slices.Equal(spins, []byte{1, 0, 1}) {
		t.Fatalf("%v", spins)
	}
	if spins, err := ParseSigns("+-1"); !errors.Is(err, ErrFormat) || spins != nil {
		t.Fatalf("%v %+v", spins, err)
	}
}

func TestUninitialized(t *testing.T) {
	t.Parallel()
	c, err := New(5, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := c.FlipRandomSite(); !errors.Is(err, ErrDomain) {
		t.Fatalf("%+v", err)
	}
	if _, err := c.Magnetization(); !errors.Is(err, ErrDomain) {
		t.Fatalf("%+v", err)
	}
	if _, err := c.Hamiltonian(DefaultParams()); !errors.Is(err, ErrDomain) {
		t.Fatalf("%+v", err)
	}
	if _, err := c.Int(); !errors.Is(err, ErrDomain) {
		t.Fatalf("%+v", err)
	}
	if spins := c.Spins(); spins != nil {
		t.Fatalf("%v", spins)
	}
}

func TestRandomize(t *testing.T) {
	t.Parallel()
	a, err := New(12, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	b, err := New(12, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for range 32 {
		as, err := a.Randomize()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		bs, err := b.Randomize()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if !slices.Equal(as, bs) {
			t.Fatalf("%v %v", as, bs)
		}
		if len(as) != 12 {
			t.Fatalf("%v", as)
		}
	}
}

func TestFlipRandomSite(t *testing.T) {
	t.Parallel()
	const n = 6
	c, err := New(n, rand.New(rand.NewPCG(3, 4)))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if _, err := c.SetInt(0); err != nil {
		t.Fatalf("%+v", err)
	}

	visited := make(map[int]bool)
	for range 1000 {
		prev := c.Spins()
		site, err := c.FlipRandomSite()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		if site < 0 || site >= n {
			t.Fatalf("%d", site)
		}
		visited[site] = true

		spins := c.Spins()
		for i := range spins {
			switch {
			case i == site && spins[i] == prev[i]:
				t.Fatalf("%d %v %v", site, prev, spins)
			case i != site && spins[i] != prev[i]:
				t.Fatalf("%d %v %v", site, prev, spins)
			}
		}
	}
	// Every site including the last one is reachable.
	if len(visited) != n {
		t.Fatalf("%v", visited)
	}
}

func TestMagnetizationBounds(t *testing.T) {
	t.Parallel()
	for n := 1; n <= 9; n++ {
		for _, state := range States(n) {
			m := Magnetization(state)
			if m < -n || m > n {
				t.Fatalf("%v %d", state, m)
			}
			if (m-n)%2 != 0 {
				t.Fatalf("%v %d", state, m)
			}
		}
	}
}

func TestEnergyGlobalFlip(t *testing.T) {
	t.Parallel()
	p := Params{J: -2, U: 1.1}
	const n = 7
	flipped := make([]byte, n)
	for _, state := range States(n) {
		for i, s := range state {
			flipped[i] = s ^ 1
		}
		m, mf := Magnetization(state), Magnetization(flipped)
		if mf != -m {
			t.Fatalf("%v %d %d", state, m, mf)
		}

		coupling := Energy(state, p) - p.U*float64(m)
		couplingF := Energy(flipped, p) - p.U*float64(mf)
		if !scalar.EqualWithinAbsOrRel(coupling, couplingF, 1e-12, 1e-12) {
			t.Fatalf("%v %f %f", state, coupling, couplingF)
		}
	}
}

func TestEnergyPeriodic(t *testing.T) {
	t.Parallel()
	tests := []struct {
		spins  []byte
		p      Params
		energy float64
	}{
		// Pairs (1,0) (0,1) (1,0) (0,1), the last one wraps around.
		{spins: []byte{1, 0, 1, 0}, p: Params{J: 1}, energy: 4},
		// Pairs (1,0) (0,0) (0,1) (1,1).
		{spins: []byte{1, 0, 0, 1}, p: Params{J: 1}, energy: 0},
		{spins: []byte{1, 1, 1, 1}, p: Params{J: 1}, energy: -4},
		{spins: []byte{1, 1, 1, 1}, p: Params{J: 0, U: 0.5}, energy: 2},
		// A single spin is its own neighbour.
		{spins: []byte{0}, p: Params{J: -2, U: 1.1}, energy: 2 - 1.1},
		{spins: []byte{0, 0, 0, 0, 1, 0, 1, 0}, p: DefaultParams(), energy: -4.4},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v %v", test.spins, test.p), func(t *testing.T) {
			t.Parallel()
			e := Energy(test.spins, test.p)
			if !scalar.EqualWithinAbsOrRel(e, test.energy, 1e-12, 1e-12) {
				t.Fatalf("%v, expected %v", e, test.energy)
			}
		})
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}

func TestSetSignsLength(t *testing.T) {
	t.Parallel()
	const s = "++-+---+--+"
	c, err := New(8, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if spins, err := c.SetSigns(s); !errors.Is(err, ErrFormat) {
		t.Fatalf("%v %+v", spins, err)
	}
	if spins := c.Spins(); spins != nil {
		t.Fatalf("%v", spins)
	}

	spins, err := ParseSigns(s)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	expected := []byte{1, 1, 0, 1, 0, 0, 0, 1, 0, 0, 1}
	if !slices.Equal(spins, expected) {
		t.Fatalf("%v, expected %v", spins, expected)
	}
	if _, err := c.SetSigns(FormatSigns(spins[:8])); err != nil {
		t.Fatalf("%+v", err)
	}
	if got := c.Spins(); !slices.Equal(got, expected[:8]) {
		t.Fatalf("%v, expected %v", got, expected[:8])
	}
}
