package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	logger  *zap.SugaredLogger
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowtrap",
		Short: "Prove unreachability properties of parameterized distributed systems",
		Long: `flowtrap compiles a system of replicated finite-state components
synchronizing through guarded multi-party ports and quantified broadcasts
into a WS1S theory, and discharges it to an external decision procedure to
prove a target property unreachable via a Petri-net style structural
argument (place invariants plus traps).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var cfg zap.Config
			if verbose {
				cfg = zap.NewDevelopmentConfig()
			} else {
				cfg = zap.NewProductionConfig()
				cfg.DisableStacktrace = true
			}
			base, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = base.Sugar()
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	root.AddCommand(newCheckCmd())
	root.AddCommand(newListCmd())
	return root
}
