package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"latticegas/internal/core"
	_ "latticegas/internal/sims/clg"
	_ "latticegas/internal/sims/manna"
)

func newSimsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sims",
		Short: "List the viewer simulations and their default parameters",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, name := range core.Names() {
				sim := core.Sims()[name](nil)
				fmt.Fprintln(out, name)
				provider, ok := sim.(core.ParameterProvider)
				if !ok {
					continue
				}
				for _, g := range provider.Parameters().Groups {
					for _, p := range g.Params {
						fmt.Fprintf(out, "  %-12s %-8s %s\n", p.Key, p.Type, p.Value)
					}
				}
			}
		},
	}
}
