package source

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Eligibility decides whether a document takes part in the count.
// Implementations must be safe for concurrent use.
type Eligibility interface {
	Eligible(text, label string) bool
}

// All accepts every document.
type All struct{}

func (All) Eligible(string, string) bool { return true }

// Threshold accepts documents whose source appears at least Min times in
// the table. The label is looked up as given and then normalized, so the
// table may be keyed either way.
type Threshold struct {
	Table Table
	Min   int64
}

func (t Threshold) Eligible(_ string, label string) bool {
	n, _ := t.Table.Lookup(label)
	return n >= t.Min
}

// Language accepts documents detected as one of the configured languages.
type Language struct {
	detector lingua.LanguageDetector
	accept   map[lingua.Language]struct{}
}

// NewLanguage builds a detector for the given ISO 639-1 codes. lingua needs
// at least two candidates, so English is added as the alternative when a
// single language is configured.
func NewLanguage(codes []string) (*Language, error) {
	accept := make(map[lingua.Language]struct{}, len(codes))
	langs := make([]lingua.Language, 0, len(codes)+1)
	for _, code := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToLower(strings.TrimSpace(code)))
		lang := lingua.GetLanguageFromIsoCode639_1(iso)
		if lang == lingua.Unknown {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unsupported language code %q", code)
		}
		if _, dup := accept[lang]; dup {
			continue
		}
		accept[lang] = struct{}{}
		langs = append(langs, lang)
	}
	if len(langs) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "language filter needs at least one language")
	}
	if len(langs) == 1 && langs[0] != lingua.English {
		langs = append(langs, lingua.English)
	} else if len(langs) == 1 {
		langs = append(langs, lingua.Hindi)
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(langs...).
		Build()
	return &Language{detector: detector, accept: accept}, nil
}

func (l *Language) Eligible(text string, _ string) bool {
	lang, ok := l.detector.DetectLanguageOf(text)
	if !ok {
		return false
	}
	_, accepted := l.accept[lang]
	return accepted
}

// AllOf accepts a document only when every rule does.
type AllOf []Eligibility

func (a AllOf) Eligible(text, label string) bool {
	for _, e := range a {
		if !e.Eligible(text, label) {
			return false
		}
	}
	return true
}

// Rules describes the eligibility checks to build.
type Rules struct {
	Table     Table
	MinCount  int64
	Languages []string
}

// Build returns the eligibility strategy for r: All when nothing is
// configured, otherwise the conjunction of the configured checks.
func Build(r Rules) (Eligibility, error) {
	var rules AllOf
	if r.Table != nil {
		rules = append(rules, Threshold{Table: r.Table, Min: r.MinCount})
	}
	if len(r.Languages) > 0 {
		l, err := NewLanguage(r.Languages)
		if err != nil {
			return nil, err
		}
		rules = append(rules, l)
	}
	switch len(rules) {
	case 0:
		return All{}, nil
	case 1:
		return rules[0], nil
	default:
		return rules, nil
	}
}
