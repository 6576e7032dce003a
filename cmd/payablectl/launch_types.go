package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newLaunchTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "launch-types",
		Short: "List the launch type catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			types := a.ledger.Registry().All()

			return a.render(cmd.OutOrStdout(), types, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tLABEL\tOPERATION\tSETTLEMENT")
				for _, t := range types {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", t.ID, t.Label, t.Operation, t.IsSettlement)
				}
				return tw.Flush()
			})
		},
	}
}
