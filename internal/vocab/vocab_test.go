package vocab

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/tokenizer"
)

func toyCounter(t testing.TB) *Counter {
	t.Helper()
	rule, err := tokenizer.NewBlock('A', 'B')
	if err != nil {
		t.Fatalf("NewBlock: %v", err)
	}
	return NewCounter(rule)
}

func foldAll(c *Counter, docs []string) Counts {
	out := Counts{}
	for _, d := range docs {
		c.Fold(out, d)
	}
	return out
}

// randomDocs builds documents over a small alphabet so tokens repeat
// within and across documents.
func randomDocs(seed int64, n int) []string {
	rng := rand.New(rand.NewSource(seed))
	words := []string{"A", "B", "AB", "BA", "AAB", "ABBA", "BBB"}
	seps := []string{" ", "-", ", ", "x", "\n"}
	docs := make([]string, n)
	for i := range docs {
		k := rng.Intn(12)
		s := ""
		for j := 0; j < k; j++ {
			s += words[rng.Intn(len(words))] + seps[rng.Intn(len(seps))]
		}
		docs[i] = s
	}
	return docs
}

func TestCounterCount(t *testing.T) {
	c := toyCounter(t)
	got := c.Count("A-B-A")
	if len(got) != 2 || got["A"] != 2 || got["B"] != 1 {
		t.Errorf("Count = %v, want A:2 B:1", got)
	}
	if got := c.Count(""); len(got) != 0 {
		t.Errorf("Count(\"\") = %v, want empty", got)
	}
}

func TestFoldEndToEnd(t *testing.T) {
	c := toyCounter(t)
	got := foldAll(c, []string{"A-B-A", "A B"})
	want := Counts{
		"A": {TF: 3, DF: 2},
		"B": {TF: 2, DF: 2},
	}
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFoldCapsDocumentFrequency(t *testing.T) {
	c := toyCounter(t)
	got := foldAll(c, []string{"A A A A A"})
	if p := got["A"]; p.TF != 5 || p.DF != 1 {
		t.Errorf("A = %+v, want tf=5 df=1", p)
	}
}

func TestMergeIdentity(t *testing.T) {
	c := toyCounter(t)
	orig := foldAll(c, randomDocs(1, 20))
	tests := map[string]func(Counts) Counts{
		"empty right": func(x Counts) Counts { return Merge(x, Counts{}) },
		"empty left":  func(x Counts) Counts { return Merge(Counts{}, x) },
		"nil left":    func(x Counts) Counts { return Merge(nil, x) },
		"nil right":   func(x Counts) Counts { return Merge(x, nil) },
	}
	for name, merge := range tests {
		t.Run(name, func(t *testing.T) {
			if got := merge(orig.Clone()); !got.Equal(orig) {
				t.Errorf("merge with empty changed the table: got %v, want %v", got, orig)
			}
		})
	}
}

func TestMergeMatchesSinglePass(t *testing.T) {
	c := toyCounter(t)
	for seed := int64(0); seed < 20; seed++ {
		docs := randomDocs(seed, 30)
		whole := foldAll(c, docs)

		rng := rand.New(rand.NewSource(seed + 100))
		// Random 3-way split with arbitrary boundaries.
		i := rng.Intn(len(docs) + 1)
		j := i + rng.Intn(len(docs)-i+1)
		groups := [][]string{docs[:i], docs[i:j], docs[j:]}
		parts := func() []Counts {
			ps := make([]Counts, len(groups))
			for k, g := range groups {
				ps[k] = foldAll(c, g)
			}
			return ps
		}

		orders := [][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
		for _, o := range orders {
			ps := parts()
			leftAssoc := Merge(Merge(ps[o[0]], ps[o[1]]), ps[o[2]])
			if !leftAssoc.Equal(whole) {
				t.Fatalf("seed %d order %v: ((a+b)+c) = %v, want %v", seed, o, leftAssoc, whole)
			}
			ps = parts()
			rightAssoc := Merge(ps[o[0]], Merge(ps[o[1]], ps[o[2]]))
			if !rightAssoc.Equal(whole) {
				t.Fatalf("seed %d order %v: (a+(b+c)) = %v, want %v", seed, o, rightAssoc, whole)
			}
		}
	}
}

func TestMergeCommutes(t *testing.T) {
	c := toyCounter(t)
	a := foldAll(c, randomDocs(7, 10))
	b := foldAll(c, randomDocs(8, 10))
	ab := Merge(a.Clone(), b.Clone())
	ba := Merge(b.Clone(), a.Clone())
	if !ab.Equal(ba) {
		t.Errorf("a+b = %v, b+a = %v", ab, ba)
	}
}

func TestReduceIndependentOfPartitioning(t *testing.T) {
	c := toyCounter(t)
	docs := randomDocs(42, 200)
	whole := foldAll(c, docs)
	for _, n := range []int{1, 2, 3, 5, 8, 13} {
		for _, shards := range []int{0, 1, 2, 4, 7} {
			t.Run(fmt.Sprintf("partitions_%d/shards_%d", n, shards), func(t *testing.T) {
				parts := make([]Counts, n)
				for i := range parts {
					parts[i] = Counts{}
				}
				for i, d := range docs {
					c.Fold(parts[i%n], d)
				}
				got := ReduceSharded(parts, shards)
				if !got.Equal(whole) {
					t.Errorf("got %d tokens, want %d", len(got), len(whole))
				}
			})
		}
	}
}

func TestReduceShardedLeavesInputsAlone(t *testing.T) {
	c := toyCounter(t)
	parts := []Counts{foldAll(c, randomDocs(11, 30)), {}, foldAll(c, randomDocs(12, 30))}
	before := make([]Counts, len(parts))
	for i, p := range parts {
		before[i] = p.Clone()
	}
	want := Reduce([]Counts{parts[0].Clone(), parts[2].Clone()})

	// More shards than distinct tokens leaves most shards empty.
	got := ReduceSharded(parts, 64)
	if !got.Equal(want) {
		t.Errorf("sharded merge = %v, want %v", got, want)
	}
	for i := range parts {
		if !parts[i].Equal(before[i]) {
			t.Errorf("input %d modified", i)
		}
	}
}

func TestReduceEmpty(t *testing.T) {
	if got := Reduce(nil); got == nil || len(got) != 0 {
		t.Errorf("Reduce(nil) = %v, want empty non-nil table", got)
	}
	if got := ReduceSharded(nil, 4); len(got) != 0 {
		t.Errorf("ReduceSharded(nil) = %v, want empty", got)
	}
}

func TestInternerMatchesCounter(t *testing.T) {
	c := toyCounter(t)
	docs := randomDocs(3, 100)
	want := foldAll(c, docs)

	in := NewInterner()
	var occurrences int64
	for _, d := range docs {
		occurrences += in.Fold(c, d)
	}
	if in.Len() != len(want) {
		t.Errorf("interner saw %d tokens, want %d", in.Len(), len(want))
	}
	got := in.Resolve()
	if !got.Equal(want) {
		t.Errorf("interned fold = %v, want %v", got, want)
	}
	if total, _ := want.Totals(); total != occurrences {
		t.Errorf("occurrences = %d, want %d", occurrences, total)
	}
}

func TestThresholds(t *testing.T) {
	tests := []struct {
		name string
		th   Thresholds
		keep bool
	}{
		{name: "survives", th: Thresholds{MinTF: 4, MinDF: 2}, keep: true},
		{name: "df too low", th: Thresholds{MinTF: 4, MinDF: 4}, keep: false},
		{name: "tf too low", th: Thresholds{MinTF: 6}, keep: false},
		{name: "exact bounds", th: Thresholds{MinTF: 5, MinDF: 3}, keep: true},
		{name: "disabled", th: Thresholds{}, keep: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Counts{"tok": {TF: 5, DF: 3}}
			removed := tt.th.Apply(c)
			_, kept := c["tok"]
			if kept != tt.keep {
				t.Errorf("kept = %v, want %v", kept, tt.keep)
			}
			if (removed == 0) != tt.keep {
				t.Errorf("removed = %d with keep = %v", removed, tt.keep)
			}
		})
	}
}

func TestThresholdsAfterMergeOnly(t *testing.T) {
	// "A" appears once in each partition: filtering per partition with
	// MinTF=2 would drop it, filtering the merged table keeps it.
	c := toyCounter(t)
	p1 := foldAll(c, []string{"A B B"})
	p2 := foldAll(c, []string{"A"})
	th := Thresholds{MinTF: 2}

	merged := Merge(p1.Clone(), p2.Clone())
	th.Apply(merged)
	if _, ok := merged["A"]; !ok {
		t.Fatalf("A dropped after merge: %v", merged)
	}

	th.Apply(p1)
	th.Apply(p2)
	if _, ok := Merge(p1, p2)["A"]; ok {
		t.Fatalf("per-partition filtering unexpectedly kept A")
	}
}

func TestSorted(t *testing.T) {
	c := Counts{
		"B":  {TF: 2, DF: 1},
		"A":  {TF: 2, DF: 2},
		"AB": {TF: 9, DF: 1},
		"BA": {TF: 1, DF: 1},
	}
	got := c.Sorted()
	want := []string{"AB", "A", "B", "BA"}
	for i, e := range got {
		if e.Token != want[i] {
			t.Fatalf("Sorted()[%d] = %q, want %q (full %v)", i, e.Token, want[i], got)
		}
	}
}

func BenchmarkFold(b *testing.B) {
	c := toyCounter(b)
	docs := randomDocs(9, 1000)
	b.Run("counter", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			foldAll(c, docs)
		}
	})
	b.Run("interner", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			in := NewInterner()
			for _, d := range docs {
				in.Fold(c, d)
			}
			in.Resolve()
		}
	})
}
