package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitrdm/flowtrap/internal/fixture"
	"github.com/gitrdm/flowtrap/internal/solver"
	"github.com/gitrdm/flowtrap/pkg/flowtrap"
)

func newListCmd() *cobra.Command {
	var (
		structural string
		size       int
	)

	cmd := &cobra.Command{
		Use:   "list <interaction.yaml>",
		Short: "Print property names, or a structural predicate family with --structural",
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

			if structural == "" {
				for _, name := range interaction.PropertyNames() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			var kind flowtrap.TrapOrFlow
			switch structural {
			case "traps":
				kind = flowtrap.TrapFamily
			case "invariants":
				kind = flowtrap.InvariantFamily
			default:
				return fmt.Errorf("--structural must be %q or %q, got %q", "traps", "invariants", structural)
			}

			driver := flowtrap.NewDriver(solver.New(""), nil, logger)
			text, err := driver.ListStructuralPredicates(interaction, kind, size)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVar(&structural, "structural", "", `print the "traps" or "invariants" predicate family instead of property names`)
	cmd.Flags().IntVar(&size, "size", 4, "universe size n to close the structural predicates over")
	return cmd
}
