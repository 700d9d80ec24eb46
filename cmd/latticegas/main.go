// Command latticegas runs ensembles of CLG and Manna realizations and turns
// them into tables and figures.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"latticegas/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "latticegas",
		Short: "Conserved Lattice Gas and Manna model simulations",
		Long: `latticegas simulates particle-hopping models on a one-dimensional ring.

It runs ensembles of independent realizations of the Conserved Lattice Gas
(CLG) or the Manna sandpile, samples the activity or the Computable
Information Density (CID) at checkpoints, and aggregates the results into
ensemble tables and figures.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		newRunCmd(),
		newAggregateCmd(),
		newPlotCmd(),
		newCompareCmd(),
		newServeCmd(),
		newSimsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// newLogger builds the command logger from the persistent --log-level flag.
// fallback is used when the flag was not given explicitly.
func newLogger(cmd *cobra.Command, fallback string) *log.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if !cmd.Flags().Changed("log-level") && fallback != "" {
		level = fallback
	}
	return logging.New(level, cmd.ErrOrStderr())
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "latticegas version %s\n", version)
		},
	}
}
