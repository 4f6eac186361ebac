// Package vocab holds term-frequency / document-frequency tables and the
// operations that build and combine them: the per-document counter, the
// associative merge, the partition-private interner and the threshold
// filter applied after the final merge.
package vocab

import (
	"cmp"
	"slices"
)

// Pair is the (tf, df) statistic of one token within a scope.
type Pair struct {
	TF int64 `json:"tf"`
	DF int64 `json:"df"`
}

func (p Pair) Add(o Pair) Pair {
	return Pair{TF: p.TF + o.TF, DF: p.DF + o.DF}
}

// Counts maps a token to its statistics within one scope (a document, a
// partition or the whole corpus).
type Counts map[string]Pair

// Add folds p into the entry for token.
func (c Counts) Add(token string, p Pair) {
	c[token] = c[token].Add(p)
}

// Equal reports whether both tables hold the same tokens with the same
// statistics.
func (c Counts) Equal(o Counts) bool {
	if len(c) != len(o) {
		return false
	}
	for tok, p := range c {
		q, ok := o[tok]
		if !ok || p != q {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of c.
func (c Counts) Clone() Counts {
	out := make(Counts, len(c))
	for tok, p := range c {
		out[tok] = p
	}
	return out
}

// Merge combines a and b, entry by entry, treating missing tokens as (0, 0).
// The larger table is reused as the destination; callers must not use a or
// b afterwards.
func Merge(a, b Counts) Counts {
	if a == nil {
		a = Counts{}
	}
	if len(b) > len(a) {
		a, b = b, a
	}
	for tok, p := range b {
		a.Add(tok, p)
	}
	return a
}

// Entry is one row of a sorted table.
type Entry struct {
	Token string `json:"token"`
	TF    int64  `json:"tf"`
	DF    int64  `json:"df"`
}

// Sorted lists the table by descending tf, breaking ties by ascending token
// so the order is reproducible.
func (c Counts) Sorted() []Entry {
	out := make([]Entry, 0, len(c))
	for tok, p := range c {
		out = append(out, Entry{Token: tok, TF: p.TF, DF: p.DF})
	}
	slices.SortFunc(out, func(x, y Entry) int {
		if n := cmp.Compare(y.TF, x.TF); n != 0 {
			return n
		}
		return cmp.Compare(x.Token, y.Token)
	})
	return out
}

// Totals returns the sum of tf over all tokens and the number of tokens.
func (c Counts) Totals() (occurrences int64, distinct int) {
	for _, p := range c {
		occurrences += p.TF
	}
	return occurrences, len(c)
}
