// Package explode generates candidate words by gluing every suffix onto
// every root and keeps the candidates that appear in a reference word list.
package explode

import (
	"context"
	"os"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// ReadLines loads a newline-separated list. A trailing carriage return is
// dropped from each line; empty lines are kept.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrUnreadable, "reading %s: %v", path, err)
	}
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}

// Set builds a lookup set from a word list.
func Set(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// Generate returns every root+suffix present in filter, sorted and without
// duplicates. Empty roots are ignored; an empty suffix stands for the bare
// root. Roots are split across workers.
func Generate(ctx context.Context, roots, suffixes []string, filter map[string]struct{}, workers int) ([]string, error) {
	roots = compact(roots, false)
	suffixes = compact(suffixes, true)
	if len(roots) == 0 || len(suffixes) == 0 {
		return nil, nil
	}

	n := max(min(workers, len(roots)), 1)
	found := make([][]string, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		chunk := roots[i*len(roots)/n : (i+1)*len(roots)/n]
		g.Go(func() error {
			var sb strings.Builder
			for _, root := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				for _, suffix := range suffixes {
					sb.Reset()
					sb.WriteString(root)
					sb.WriteString(suffix)
					if _, ok := filter[sb.String()]; ok {
						found[i] = append(found[i], sb.String())
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := slices.Concat(found...)
	slices.Sort(out)
	return slices.Compact(out), nil
}

func compact(list []string, keepEmpty bool) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s == "" && !keepEmpty {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
