package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
)

// Table prints the top tokens as a terminal table followed by a one-line
// summary of the run.
type Table struct {
	top int
	w   io.Writer
}

func NewTable(top int, w io.Writer) *Table {
	return &Table{top: top, w: w}
}

func (t *Table) Name() string { return "table" }

func (t *Table) Close() error { return nil }

func (t *Table) Write(_ context.Context, res *aggregator.Result) error {
	entries := res.Counts.Sorted()
	if t.top > 0 && len(entries) > t.top {
		entries = entries[:t.top]
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Token", "TF", "DF"})
	for i, e := range entries {
		tw.AppendRow(table.Row{i + 1, e.Token, humanize.Comma(e.TF), humanize.Comma(e.DF)})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	occurrences, distinct := res.Counts.Totals()
	_, err := fmt.Fprintf(t.w, "%s\n%s distinct tokens, %s occurrences, %s documents\n",
		tw.Render(),
		humanize.Comma(int64(distinct)),
		humanize.Comma(occurrences),
		humanize.Comma(res.Report.Counted),
	)
	return err
}
