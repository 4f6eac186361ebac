package vocab

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Reduce merges every partition table into one. The inputs are consumed.
func Reduce(parts []Counts) Counts {
	var out Counts
	for _, p := range parts {
		out = Merge(out, p)
	}
	if out == nil {
		out = Counts{}
	}
	return out
}

// ReduceSharded splits the token space into shards by hash and merges each
// shard on its own goroutine. Each input is bucketed by shard once, in
// parallel; then every shard has a single writer, and shards hold disjoint
// keys, so stitching them together needs no further arithmetic. The inputs
// are only read.
func ReduceSharded(parts []Counts, shards int) Counts {
	if shards <= 1 || len(parts) <= 1 {
		return Reduce(parts)
	}

	// buckets[p][s] holds the keys of parts[p] that belong to shard s.
	buckets := make([][][]shardedPair, len(parts))
	var wg sync.WaitGroup
	for i, p := range parts {
		wg.Go(func() {
			b := make([][]shardedPair, shards)
			for tok, pair := range p {
				s := ShardOf(tok, shards)
				b[s] = append(b[s], shardedPair{token: tok, pair: pair})
			}
			buckets[i] = b
		})
	}
	wg.Wait()

	dst := make([]Counts, shards)
	for s := range shards {
		wg.Go(func() {
			size := 0
			for _, b := range buckets {
				size = max(size, len(b[s]))
			}
			local := make(Counts, size)
			for _, b := range buckets {
				for _, e := range b[s] {
					local.Add(e.token, e.pair)
				}
			}
			dst[s] = local
		})
	}
	wg.Wait()

	total := 0
	for _, d := range dst {
		total += len(d)
	}
	out := make(Counts, total)
	for _, d := range dst {
		for tok, pair := range d {
			out[tok] = pair
		}
	}
	return out
}

type shardedPair struct {
	token string
	pair  Pair
}

// ShardOf maps a token to one of n shards.
func ShardOf(token string, n int) int {
	return int(xxhash.Sum64String(token) % uint64(n))
}
