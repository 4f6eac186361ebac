package vocab

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/tokenizer"
)

// Counter turns one document's text into token occurrence counts.
type Counter struct {
	rule tokenizer.Rule
}

func NewCounter(rule tokenizer.Rule) *Counter {
	return &Counter{rule: rule}
}

// Count returns how many times each token occurs in text.
func (c *Counter) Count(text string) map[string]int {
	counts := make(map[string]int)
	for tok := range c.rule.Tokens(text) {
		counts[tok]++
	}
	return counts
}

// Fold adds one document's contribution to dst: tf grows by the occurrence
// count and df by exactly one for every distinct token. It returns the
// number of token occurrences in the document. New keys are copied so the
// table does not keep document text alive.
func (c *Counter) Fold(dst Counts, text string) int64 {
	var n int64
	for tok, occ := range c.Count(text) {
		if _, ok := dst[tok]; !ok {
			tok = strings.Clone(tok)
		}
		dst.Add(tok, Pair{TF: int64(occ), DF: 1})
		n += int64(occ)
	}
	return n
}
