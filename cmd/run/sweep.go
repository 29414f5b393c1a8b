package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/isingchain"
	"github.com/fumin/isingchain/config"
	"github.com/fumin/isingchain/metrics"
	"github.com/fumin/isingchain/store"
)

const (
	dbName      = "results.db"
	metricsName = "isingchain.prom"
)

func newSweepCmd() *cobra.Command {
	var cfgPath, runDir string
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate a grid of lengths and temperatures, skipping points already in the run directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if cfgPath != "" {
				var err error
				cfg, err = config.Load(cfgPath)
				if err != nil {
					return errors.Wrap(err, "")
				}
			}
			if err := sweep(cmd.Context(), cfg, runDir); err != nil {
				return errors.Wrap(err, "")
			}
			return gather(cmd.Context(), runDir, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "sweep YAML, defaults are used if empty")
	cmd.Flags().StringVarP(&runDir, "dir", "d", filepath.Join("runs", "isingchain"), "run directory")
	return cmd
}

func newGatherCmd() *cobra.Command {
	var runDir string
	cmd := &cobra.Command{
		Use:   "gather",
		Short: "Print the results of a run directory as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return gather(cmd.Context(), runDir, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&runDir, "dir", "d", filepath.Join("runs", "isingchain"), "run directory")
	return cmd
}

func sweep(ctx context.Context, cfg config.Sweep, runDir string) error {
	if err := os.MkdirAll(runDir, os.ModePerm); err != nil {
		return errors.Wrap(err, "")
	}
	db, err := store.Open(filepath.Join(runDir, dbName))
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	m := metrics.New()
	points := cfg.Points()
	prog := newProgress(len(points), 5*time.Second)
	for _, p := range points {
		k := cfg.Key(p)
		_, ok, err := db.Get(ctx, k)
		if err != nil {
			return errors.Wrap(err, "")
		}
		if ok {
			prog.skip()
			continue
		}

		start := time.Now()
		obs, samples, err := solve(ctx, cfg, p)
		if errors.Is(err, isingchain.ErrNotConverged) {
			// Nothing is stored, so the point is retried by the next sweep.
			m.ObserveNotConverged(p.Method)
			prog.failed(k, err)
			continue
		}
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%#v", k))
		}
		m.ObservePoint(p.Method, time.Since(start))
		m.AddSamples(samples...)
		if err := db.Put(ctx, store.Row{Key: k, Observables: obs}); err != nil {
			return errors.Wrap(err, "")
		}
		prog.done(k, obs)
	}

	if err := m.WriteTextfile(filepath.Join(runDir, metricsName)); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func solve(ctx context.Context, cfg config.Sweep, p config.Point) (isingchain.Observables, []isingchain.Sample, error) {
	params := cfg.Params()
	switch p.Method {
	case store.MethodExact:
		obs, err := isingchain.Exact(ctx, p.N, p.T, params)
		if err != nil {
			return isingchain.Observables{}, nil, errors.Wrap(err, "")
		}
		return obs, nil, nil
	case store.MethodMetropolis:
		opt := isingchain.NewMetropolisOptions().TimeAverage(cfg.TimeAverage).MaxProposals(cfg.MaxProposals)
		ens, err := isingchain.ParallelMetropolis(ctx, p.N, p.T, cfg.Samples, params, cfg.Chains, cfg.Seed, opt)
		if err != nil {
			return isingchain.Observables{}, nil, errors.Wrap(err, "")
		}
		return ens.Mean, ens.Samples, nil
	case store.MethodTransfer:
		obs, err := isingchain.Transfer(p.N, p.T, params)
		if err != nil {
			return isingchain.Observables{}, nil, errors.Wrap(err, "")
		}
		return obs, nil, nil
	default:
		return isingchain.Observables{}, nil, errors.Errorf("unknown method %q", p.Method)
	}
}

func gather(ctx context.Context, runDir string, w io.Writer) error {
	dbPath := filepath.Join(runDir, dbName)
	if _, err := os.Stat(dbPath); err != nil {
		return errors.Wrap(err, "no results")
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer db.Close()

	rows, err := db.All(ctx)
	if err != nil {
		return errors.Wrap(err, "")
	}
	fmt.Fprintf(w, "method,n,t,j,u,m,chains,seed,e,mag,c,chi\n")
	for _, r := range rows {
		fmt.Fprintf(w, "%s,%d,%f,%f,%f,%d,%d,%d,%f,%f,%f,%f\n", r.Method, r.N, r.T, r.J, r.U, r.M, r.Chains, r.Seed, r.Energy, r.Magnetization, r.HeatCapacity, r.Susceptibility)
	}
	return nil
}

// progress logs sweep advancement at most once per interval.
type progress struct {
	total       int
	count       int
	skipped     int
	unconverged int

	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func newProgress(total int, interval time.Duration) *progress {
	return &progress{total: total, interval: interval, now: time.Now}
}

func (p *progress) skip() {
	p.count++
	p.skipped++
}

func (p *progress) done(k store.Key, obs isingchain.Observables) {
	p.count++
	if !p.ok() {
		return
	}
	log.Printf("%d/%d (%d skipped, %d not converged) %#v %v", p.count, p.total, p.skipped, p.unconverged, k, obs)
}

// failed is always logged.
func (p *progress) failed(k store.Key, err error) {
	p.count++
	p.unconverged++
	log.Printf("%d/%d %#v %v", p.count, p.total, k, err)
}

func (p *progress) ok() bool {
	now := p.now()
	if now.Before(p.last.Add(p.interval)) {
		return false
	}
	p.last = now
	return true
}
