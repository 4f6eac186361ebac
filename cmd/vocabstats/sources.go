package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/source"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	var (
		asJSON bool
		top    int
	)
	cmd := &cobra.Command{
		Use:   "sources <counts.json>",
		Short: "Merge a source count table by normalized source key",
		Long: `Sources reads a table of document counts per source label, re-keys it by
the normalized source (scheme, www and port removed, registrable domain kept)
and prints the summed counts in descending order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := source.LoadTable(args[0])
			if err != nil {
				return err
			}
			simplified := source.Simplify(table)
			if asJSON {
				return simplified.WriteJSON(cmd.OutOrStdout())
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), simplified.Render(top))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON object instead of a table")
	cmd.Flags().IntVar(&top, "top", 0, "Show only the first N sources (0 for all)")
	return cmd
}
