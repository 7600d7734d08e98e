package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/flowtrap/internal/fixture"
	"github.com/gitrdm/flowtrap/internal/parallel"
	"github.com/gitrdm/flowtrap/internal/solver"
	"github.com/gitrdm/flowtrap/pkg/flowtrap"
)

func newCheckCmd() *cobra.Command {
	var (
		solverBinary string
		only         string
		statistics   bool
		workers      int
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "check <interaction.yaml>",
		Short: "Discharge every property (or one, with --only) of an interaction file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := fixture.Load(args[0])
			if err != nil {
				return err
			}
			interaction, err := file.Build()
			if err != nil {
				return err
			}

			pool := parallel.New(workers)
			defer pool.Shutdown()
			s := solver.New(solverBinary)
			driver := flowtrap.NewDriver(s, pool, logger)
			driver.Strict = strict

			if statistics {
				stats, err := driver.Statistics(interaction)
				if err != nil {
					return err
				}
				printStatistics(cmd, stats)
			}

			if only != "" {
				result := driver.Check(cmd.Context(), interaction, only, "")
				printVerdict(cmd, result)
				if !driver.Succeeds([]flowtrap.VerdictResult{result}) {
					return fmt.Errorf("property %q: %s: %s", only, result.Verdict, result.Message)
				}
				return nil
			}

			results, err := driver.CheckAll(cmd.Context(), interaction)
			if err != nil {
				return err
			}
			for _, r := range results {
				printVerdict(cmd, r)
			}
			if !driver.Succeeds(results) {
				if strict {
					return fmt.Errorf("strict mode: one or more properties were not proven")
				}
				return fmt.Errorf("one or more properties returned a solver error")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&solverBinary, "solver", "mona", "path to the external WS1S decision procedure binary")
	cmd.Flags().StringVar(&only, "only", "", "check a single property by name instead of every property")
	cmd.Flags().BoolVar(&statistics, "statistics", false, "print per-clause and per-property statistics before checking")
	cmd.Flags().IntVar(&workers, "workers", 0, "maximum number of property checks to run concurrently (0 = runtime.NumCPU())")
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero unless every obligation was proven, not merely not disproven")
	return cmd
}

func printVerdict(cmd *cobra.Command, r flowtrap.VerdictResult) {
	if r.Message == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Property, r.Verdict)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", r.Property, r.Verdict, r.Message)
}

func printStatistics(cmd *cobra.Command, stats flowtrap.Stats) {
	out := cmd.OutOrStdout()
	for _, c := range stats.Clauses {
		fmt.Fprintf(out, "clause %d: %d port(s), %d broadcast(s), %d free variable(s)\n",
			c.Index+1, c.Ports, c.Broadcasts, c.FreeVariables)
	}
	for _, p := range stats.Properties {
		fmt.Fprintf(out, "property %s: %d predicate(s), %d byte(s) rendered\n",
			p.Name, p.PredicateCount, p.RenderedBytes)
	}
}
