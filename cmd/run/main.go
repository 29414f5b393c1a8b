package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumin/isingchain"
)

func main() {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("%+v", err)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "run",
		Short: "Thermal observables of a one dimensional Ising chain",
		Long: `run computes the energy, magnetization, heat capacity and magnetic susceptibility
of a periodic Ising chain by exact enumeration, Metropolis sampling or the transfer matrix.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	p := isingchain.DefaultParams()
	rootCmd.PersistentFlags().Float64VarP(&p.J, "coupling", "j", p.J, "nearest neighbour coupling J")
	rootCmd.PersistentFlags().Float64VarP(&p.U, "field", "u", p.U, "external field strength")

	rootCmd.AddCommand(
		newExactCmd(&p),
		newMetropolisCmd(&p),
		newTransferCmd(&p),
		newSweepCmd(),
		newGatherCmd(),
	)
	return rootCmd
}

func newExactCmd(p *isingchain.Params) *cobra.Command {
	var n int
	var t float64
	cmd := &cobra.Command{
		Use:   "exact",
		Short: "Sum over all 2^n configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := isingchain.Exact(cmd.Context(), n, t, *p)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("n=%d t=%f %#v", n, t, *p))
			}
			printObservables(cmd.OutOrStdout(), obs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "length", "n", 8, "chain length")
	cmd.Flags().Float64VarP(&t, "temperature", "t", 10, "temperature")
	return cmd
}

func newMetropolisCmd(p *isingchain.Params) *cobra.Command {
	var n, m, chains, maxProposals int
	var t float64
	var seed uint64
	var timeAverage bool
	cmd := &cobra.Command{
		Use:   "metropolis",
		Short: "Sample with single spin flip Metropolis chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			opt := isingchain.NewMetropolisOptions().TimeAverage(timeAverage).MaxProposals(maxProposals)
			ens, err := isingchain.ParallelMetropolis(cmd.Context(), n, t, m, *p, chains, seed, opt)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("n=%d t=%f m=%d %#v", n, t, m, *p))
			}
			for i, s := range ens.Samples {
				log.Printf("chain %d %v acceptance %.4f", i, s.Observables, s.AcceptanceRate())
			}
			printObservables(cmd.OutOrStdout(), ens.Mean)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "stderr,%f,%f,%f,%f\n", ens.StdErr.Energy, ens.StdErr.Magnetization, ens.StdErr.HeatCapacity, ens.StdErr.Susceptibility)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "length", "n", 8, "chain length")
	cmd.Flags().Float64VarP(&t, "temperature", "t", 10, "temperature")
	cmd.Flags().IntVarP(&m, "samples", "m", 10000, "samples per chain")
	cmd.Flags().IntVar(&chains, "chains", 1, "number of independent chains")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed, chain i uses stream i")
	cmd.Flags().BoolVar(&timeAverage, "time-average", false, "count rejected proposals as repeated samples")
	cmd.Flags().IntVar(&maxProposals, "max-proposals", 0, "proposal limit per chain, 0 is unbounded")
	return cmd
}

func newTransferCmd(p *isingchain.Params) *cobra.Command {
	var n int
	var t float64
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Closed form through the transfer matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			obs, err := isingchain.Transfer(n, t, *p)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("n=%d t=%f %#v", n, t, *p))
			}
			printObservables(cmd.OutOrStdout(), obs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "length", "n", 8, "chain length")
	cmd.Flags().Float64VarP(&t, "temperature", "t", 10, "temperature")
	return cmd
}

func printObservables(w io.Writer, obs isingchain.Observables) {
	fmt.Fprintf(w, "e,m,c,chi\n")
	fmt.Fprintf(w, "%f,%f,%f,%f\n", obs.Energy, obs.Magnetization, obs.HeatCapacity, obs.Susceptibility)
}

func executeContext(ctx context.Context, args []string, out io.Writer) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	if err := cmd.ExecuteContext(ctx); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
