package vocab

import "strings"

// Symbol is a partition-local token id. It has no meaning outside the
// Interner that issued it.
type Symbol uint32

// Interner assigns dense symbols to tokens while one partition is folded.
// An Interner is owned by a single goroutine and is dropped once Resolve
// has produced the partition's string-keyed table.
type Interner struct {
	ids    map[string]Symbol
	tokens []string
	pairs  []Pair
	seen   []uint32
	doc    uint32
}

func NewInterner() *Interner {
	return &Interner{ids: make(map[string]Symbol)}
}

func (in *Interner) intern(tok string) Symbol {
	if id, ok := in.ids[tok]; ok {
		return id
	}
	id := Symbol(len(in.tokens))
	tok = strings.Clone(tok)
	in.ids[tok] = id
	in.tokens = append(in.tokens, tok)
	in.pairs = append(in.pairs, Pair{})
	in.seen = append(in.seen, 0)
	return id
}

// Fold adds one document's contribution, keyed by symbol. seen records the
// last document that touched each symbol so df grows at most once per
// document without a per-document map.
func (in *Interner) Fold(c *Counter, text string) int64 {
	in.doc++
	var n int64
	for tok := range c.rule.Tokens(text) {
		id := in.intern(tok)
		in.pairs[id].TF++
		if in.seen[id] != in.doc {
			in.seen[id] = in.doc
			in.pairs[id].DF++
		}
		n++
	}
	return n
}

// Len is the number of distinct tokens seen so far.
func (in *Interner) Len() int {
	return len(in.tokens)
}

// Resolve converts the symbol table back to a string-keyed Counts. The
// interner must not be used afterwards.
func (in *Interner) Resolve() Counts {
	out := make(Counts, len(in.tokens))
	for id, tok := range in.tokens {
		out[tok] = in.pairs[id]
	}
	in.ids, in.tokens, in.pairs, in.seen = nil, nil, nil, nil
	return out
}
