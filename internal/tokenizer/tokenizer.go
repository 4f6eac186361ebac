// Package tokenizer splits document text into tokens made of runes from a
// single Unicode block. A token is a maximal run of in-block runes; every
// other rune is a separator and is discarded.
package tokenizer

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Rule produces the tokens of a text. The returned sequence is lazy and may
// be ranged over more than once with the same result.
type Rule interface {
	Tokens(text string) iter.Seq[string]
}

// Block is an inclusive rune range.
type Block struct {
	Lo rune
	Hi rune
}

func (b Block) Contains(r rune) bool {
	return r >= b.Lo && r <= b.Hi
}

func (b Block) String() string {
	return fmt.Sprintf("U+%04X-U+%04X", b.Lo, b.Hi)
}

var namedBlocks = map[string]Block{
	"devanagari": {0x0900, 0x097F},
	"bengali":    {0x0980, 0x09FF},
	"gurmukhi":   {0x0A00, 0x0A7F},
	"gujarati":   {0x0A80, 0x0AFF},
	"oriya":      {0x0B00, 0x0B7F},
	"tamil":      {0x0B80, 0x0BFF},
	"telugu":     {0x0C00, 0x0C7F},
	"kannada":    {0x0C80, 0x0CFF},
	"malayalam":  {0x0D00, 0x0D7F},
	"sinhala":    {0x0D80, 0x0DFF},
	"thai":       {0x0E00, 0x0E7F},
	"tibetan":    {0x0F00, 0x0FFF},
	"myanmar":    {0x1000, 0x109F},
	"georgian":   {0x10A0, 0x10FF},
	"armenian":   {0x0530, 0x058F},
	"hebrew":     {0x0590, 0x05FF},
	"arabic":     {0x0600, 0x06FF},
	"cyrillic":   {0x0400, 0x04FF},
	"greek":      {0x0370, 0x03FF},
}

// Devanagari is the default block.
var Devanagari = namedBlocks["devanagari"]

// ParseBlock accepts a block name ("devanagari") or an explicit range in the
// form "U+0900-U+097F" (the "U+" prefixes are optional).
func ParseBlock(s string) (Block, error) {
	s = strings.TrimSpace(s)
	if b, ok := namedBlocks[strings.ToLower(s)]; ok {
		return b, nil
	}
	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return Block{}, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown block %q", s)
	}
	l, err := parseCodepoint(lo)
	if err != nil {
		return Block{}, err
	}
	h, err := parseCodepoint(hi)
	if err != nil {
		return Block{}, err
	}
	return validBlock(l, h)
}

func parseCodepoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "U+"), "u+")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, apperrors.Newf(apperrors.ErrInvalidConfig, "bad codepoint %q: %v", s, err)
	}
	return rune(v), nil
}

func validBlock(lo, hi rune) (Block, error) {
	if lo > hi || hi > 0x10FFFF || lo < 0 {
		return Block{}, apperrors.Newf(apperrors.ErrInvalidConfig, "invalid block range U+%04X-U+%04X", lo, hi)
	}
	return Block{Lo: lo, Hi: hi}, nil
}

// BlockRule accumulates in-block runes one at a time.
type BlockRule struct {
	block Block
}

func NewBlock(lo, hi rune) (*BlockRule, error) {
	b, err := validBlock(lo, hi)
	if err != nil {
		return nil, err
	}
	return &BlockRule{block: b}, nil
}

func (r *BlockRule) Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		start := -1
		for i, ch := range text {
			if r.block.Contains(ch) {
				if start < 0 {
					start = i
				}
				continue
			}
			if start >= 0 {
				if !yield(text[start:i]) {
					return
				}
				start = -1
			}
		}
		if start >= 0 {
			yield(text[start:])
		}
	}
}

// SplitRule splits text on runs matched by a separator expression. Empty
// pieces at the edges or between adjacent separators are not tokens and are
// dropped.
type SplitRule struct {
	sep *regexp.Regexp
}

func NewSplit(pattern string) (*SplitRule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "compiling separator pattern %q: %v", pattern, err)
	}
	if re.MatchString("") {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "separator pattern %q matches the empty string", pattern)
	}
	return &SplitRule{sep: re}, nil
}

// SeparatorPattern returns the expression matching runs of runes outside b.
func SeparatorPattern(b Block) string {
	return fmt.Sprintf(`[^\x{%04X}-\x{%04X}]+`, b.Lo, b.Hi)
}

func (r *SplitRule) Tokens(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, piece := range r.sep.Split(text, -1) {
			if piece == "" {
				continue
			}
			if !yield(piece) {
				return
			}
		}
	}
}

// Normalizing applies a Unicode normal form to the text before handing it
// to the wrapped rule.
type Normalizing struct {
	Rule Rule
	Form norm.Form
}

func (n Normalizing) Tokens(text string) iter.Seq[string] {
	return n.Rule.Tokens(n.Form.String(text))
}

// New builds the rule described by cfg.
func New(cfg config.TokenizerConfig) (Rule, error) {
	blockSpec := cfg.Block
	if blockSpec == "" {
		blockSpec = "devanagari"
	}
	var rule Rule
	switch cfg.Strategy {
	case "", "block":
		b, err := ParseBlock(blockSpec)
		if err != nil {
			return nil, err
		}
		rule = &BlockRule{block: b}
	case "split":
		pattern := cfg.Pattern
		if pattern == "" {
			b, err := ParseBlock(blockSpec)
			if err != nil {
				return nil, err
			}
			pattern = SeparatorPattern(b)
		}
		r, err := NewSplit(pattern)
		if err != nil {
			return nil, err
		}
		rule = r
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown tokenizer strategy %q", cfg.Strategy)
	}
	switch strings.ToLower(cfg.Normalize) {
	case "", "none":
		return rule, nil
	case "nfc":
		return Normalizing{Rule: rule, Form: norm.NFC}, nil
	case "nfkc":
		return Normalizing{Rule: rule, Form: norm.NFKC}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown normalization form %q", cfg.Normalize)
	}
}

// Collect drains the tokens of text into a slice.
func Collect(r Rule, text string) []string {
	var out []string
	for tok := range r.Tokens(text) {
		out = append(out, tok)
	}
	return out
}
