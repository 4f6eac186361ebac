package main

import (
	"bufio"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/explode"
)

func newExplodeCommand(ctx *commandContext) *cobra.Command {
	var (
		rootsPath    string
		suffixesPath string
		filterPath   string
		workers      int
	)
	cmd := &cobra.Command{
		Use:   "explode",
		Short: "Generate root+suffix words and keep those in a word list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := explode.ReadLines(rootsPath)
			if err != nil {
				return err
			}
			suffixes, err := explode.ReadLines(suffixesPath)
			if err != nil {
				return err
			}
			filter, err := explode.ReadLines(filterPath)
			if err != nil {
				return err
			}
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			words, err := explode.Generate(cmd.Context(), roots, suffixes, explode.Set(filter), workers)
			if err != nil {
				return err
			}
			slog.Debug("explode finished", "roots", len(roots), "suffixes", len(suffixes), "matches", len(words))

			w := bufio.NewWriter(cmd.OutOrStdout())
			for _, word := range words {
				w.WriteString(word)
				w.WriteByte('\n')
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&rootsPath, "roots", "r", "", "File of newline-separated root words")
	cmd.Flags().StringVarP(&suffixesPath, "suffixes", "s", "", "File of newline-separated suffixes")
	cmd.Flags().StringVarP(&filterPath, "filter", "f", "", "File of newline-separated words to keep")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Worker count (default: number of CPUs)")
	for _, name := range []string{"roots", "suffixes", "filter"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}
