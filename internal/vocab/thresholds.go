package vocab

// Thresholds drops rare tokens from a final table. A zero bound is
// disabled.
type Thresholds struct {
	MinTF int64
	MinDF int64
}

func (t Thresholds) Keep(p Pair) bool {
	return p.TF >= t.MinTF && p.DF >= t.MinDF
}

// Apply removes, in place, every token whose tf is below MinTF or whose df
// is below MinDF, and returns the number of tokens removed. It must only
// see a table that has been merged across all partitions.
func (t Thresholds) Apply(c Counts) int {
	if t.MinTF <= 0 && t.MinDF <= 0 {
		return 0
	}
	removed := 0
	for tok, p := range c {
		if !t.Keep(p) {
			delete(c, tok)
			removed++
		}
	}
	return removed
}
