package source

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Table maps a source label, raw or normalized, to how many documents came
// from it.
type Table map[string]int64

// LoadTable reads a source table from a JSON file.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnreadable, "reading source counts %s: %v", path, err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("source counts %s: %w", path, err)
	}
	return t, nil
}

// ParseTable accepts either a JSON object {"source": count, ...} or an array
// of pairs [["source", count], ...]. Repeated sources in the array form are
// summed.
func ParseTable(data []byte) (Table, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apperrors.New(apperrors.ErrMalformed, "empty source table")
	}
	switch data[0] {
	case '{':
		var t Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "decoding source object: %v", err)
		}
		return t, nil
	case '[':
		var pairs [][]json.RawMessage
		if err := json.Unmarshal(data, &pairs); err != nil {
			return nil, apperrors.Newf(apperrors.ErrMalformed, "decoding source pairs: %v", err)
		}
		t := make(Table, len(pairs))
		for i, pair := range pairs {
			if len(pair) != 2 {
				return nil, apperrors.Newf(apperrors.ErrMalformed, "pair %d has %d elements, want 2", i, len(pair))
			}
			var src string
			var n int64
			if err := json.Unmarshal(pair[0], &src); err != nil {
				return nil, apperrors.Newf(apperrors.ErrMalformed, "pair %d source: %v", i, err)
			}
			if err := json.Unmarshal(pair[1], &n); err != nil {
				return nil, apperrors.Newf(apperrors.ErrMalformed, "pair %d count: %v", i, err)
			}
			t[src] += n
		}
		return t, nil
	default:
		return nil, apperrors.New(apperrors.ErrMalformed, "source table must be a JSON object or an array of pairs")
	}
}

// Simplify re-keys t by Normalize, summing the counts of sources that share
// a key.
func Simplify(t Table) Table {
	out := make(Table, len(t))
	for src, n := range t {
		out[Normalize(src)] += n
	}
	return out
}

// Lookup returns the count for raw, trying the label as given first and
// its normalized key second.
func (t Table) Lookup(raw string) (int64, bool) {
	if n, ok := t[raw]; ok {
		return n, true
	}
	n, ok := t[Normalize(raw)]
	return n, ok
}

// Ranked is one row of a ranked source table.
type Ranked struct {
	Source string
	Count  int64
}

// Ranked lists the table by descending count, ties by ascending source.
func (t Table) Ranked() []Ranked {
	out := make([]Ranked, 0, len(t))
	for src, n := range t {
		out = append(out, Ranked{Source: src, Count: n})
	}
	slices.SortFunc(out, func(a, b Ranked) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Source, b.Source)
	})
	return out
}

// WriteJSON prints the table as a JSON object ordered by descending count.
// encoding/json sorts map keys, so the object is assembled by hand.
func (t Table) WriteJSON(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	ranked := t.Ranked()
	for i, r := range ranked {
		key, err := json.Marshal(r.Source)
		if err != nil {
			return err
		}
		fmt.Fprintf(&buf, "  %s: %d", key, r.Count)
		if i < len(ranked)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// Render formats the ranked table for a terminal.
func (t Table) Render(limit int) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Source", "Documents"})
	for i, r := range t.Ranked() {
		if limit > 0 && i >= limit {
			break
		}
		tw.AppendRow(table.Row{i + 1, r.Source, r.Count})
	}
	tw.SetStyle(table.StyleLight)
	return tw.Render()
}
