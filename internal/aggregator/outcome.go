package aggregator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Policy decides what a unit error does to the run.
type Policy int

const (
	// FailFast aborts the run on the first unit error and produces no result.
	FailFast Policy = iota
	// Skip records the failing unit and keeps going.
	Skip
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return "failfast"
	case Skip:
		return "skip"
	default:
		return "unknown"
	}
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "failfast", "fail-fast":
		return FailFast, nil
	case "skip":
		return Skip, nil
	default:
		return FailFast, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown failure policy %q", s)
	}
}

// Status tags what happened to one document.
type Status int

const (
	Counted Status = iota
	Ineligible
	Failed
)

func (s Status) String() string {
	switch s {
	case Counted:
		return "counted"
	case Ineligible:
		return "ineligible"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result for one document. A unit that cannot be
// read or decoded yields a single Failed outcome carrying the error, since
// its documents are never seen.
type Outcome struct {
	Unit   string
	Status Status
	Tokens int64
	Err    error
}

// Skipped names a unit left out of a Skip-policy run.
type Skipped struct {
	Unit  string `json:"unit"`
	Error string `json:"error"`
}

// tally accumulates outcomes inside one partition. It is merged into the
// Report once the partition is done.
type tally struct {
	units      int
	counted    int64
	ineligible int64
	failed     int64
	tokens     int64
	skipped    []Skipped
}

func (t *tally) record(o Outcome) {
	switch o.Status {
	case Counted:
		t.counted++
		t.tokens += o.Tokens
	case Ineligible:
		t.ineligible++
	case Failed:
		t.failed++
		t.skipped = append(t.skipped, Skipped{Unit: o.Unit, Error: o.Err.Error()})
	}
}

// Report summarises a run.
type Report struct {
	RunID            string        `json:"runId,omitempty"`
	Topology         string        `json:"topology"`
	Policy           string        `json:"failurePolicy"`
	Partitions       int           `json:"partitions"`
	Units            int           `json:"units"`
	Counted          int64         `json:"documentsCounted"`
	Ineligible       int64         `json:"documentsIneligible"`
	Failed           int64         `json:"unitsFailed"`
	Tokens           int64         `json:"tokens"`
	VocabularyBefore int           `json:"vocabularyBeforeFilter"`
	VocabularyAfter  int           `json:"vocabularyAfterFilter"`
	Skipped          []Skipped     `json:"skipped,omitempty"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"durationNs"`
}

func (r *Report) absorb(t *tally) {
	r.Partitions++
	r.Units += t.units
	r.Counted += t.counted
	r.Ineligible += t.ineligible
	r.Failed += t.failed
	r.Tokens += t.tokens
	r.Skipped = append(r.Skipped, t.skipped...)
}

func (r *Report) sortSkipped() {
	slices.SortFunc(r.Skipped, func(a, b Skipped) int {
		return strings.Compare(a.Unit, b.Unit)
	})
}

func (r Report) String() string {
	return fmt.Sprintf("%d units, %d documents counted, %d ineligible, %d units skipped, %d tokens, vocabulary %d -> %d",
		r.Units, r.Counted, r.Ineligible, len(r.Skipped), r.Tokens, r.VocabularyBefore, r.VocabularyAfter)
}
