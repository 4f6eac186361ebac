// Package source canonicalizes document origin labels (hostnames, URLs)
// and decides which documents are eligible for counting.
package source

import (
	"strings"
	"unicode/utf8"
)

// Normalize reduces a raw source label to its registrable domain:
// "https://www.example.com:8080/" becomes "example.com" and
// "news.example.org.np" becomes "example.org.np". It is total: any input
// produces a key, possibly empty.
func Normalize(raw string) string {
	s := strings.TrimSuffix(raw, "/")
	if rest, ok := strings.CutPrefix(s, "http://"); ok {
		s = rest
	} else {
		s = strings.TrimPrefix(s, "https://")
	}

	parts := strings.Split(s, ".")
	kept := parts[:0]
	for _, p := range parts {
		p, _, _ = strings.Cut(p, ":")
		if p == "www" {
			continue
		}
		kept = append(kept, p)
	}

	// Two-level public suffixes such as .org.np or .co.uk have a short
	// second-to-last label.
	n := 2
	if len(kept) >= 2 && utf8.RuneCountInString(kept[len(kept)-2]) <= 3 {
		n = 3
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, ".")
}
