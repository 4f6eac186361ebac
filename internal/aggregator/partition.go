package aggregator

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/source"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/metrics"
)

// partition is the fold state of one worker. Nothing in it is shared: the
// table (or interner) is written only by the goroutine that owns the
// partition and is handed to the merge once that goroutine returns.
type partition struct {
	id       int
	counter  *vocab.Counter
	eligible source.Eligibility
	policy   Policy
	counts   vocab.Counts
	interner *vocab.Interner
	tally    tally
	metrics  *metrics.Metrics
	progress func()
	logger   *slog.Logger
}

// fold adds every eligible document of u. Under FailFast a unit error is
// returned; under Skip it is recorded and nil is returned.
func (p *partition) fold(u corpus.Unit) error {
	start := time.Now()
	p.tally.units++
	if p.progress != nil {
		defer p.progress()
	}

	docs, err := u.Documents()
	if err != nil {
		p.record(Outcome{Unit: u.Name(), Status: Failed, Err: err})
		p.metrics.ObserveUnit("failed", 0, time.Since(start))
		if p.policy == FailFast {
			return fmt.Errorf("unit %s: %w", u.Name(), err)
		}
		p.logger.Warn("skipping unit", "unit", u.Name(), "error", err)
		return nil
	}

	var tokens int64
	for _, d := range docs {
		if !p.eligible.Eligible(d.Text, d.Source) {
			p.record(Outcome{Unit: u.Name(), Status: Ineligible})
			continue
		}
		var n int64
		if p.interner != nil {
			n = p.interner.Fold(p.counter, d.Text)
		} else {
			n = p.counter.Fold(p.counts, d.Text)
		}
		tokens += n
		p.record(Outcome{Unit: u.Name(), Status: Counted, Tokens: n})
	}
	p.metrics.ObserveUnit("ok", tokens, time.Since(start))
	return nil
}

func (p *partition) record(o Outcome) {
	p.tally.record(o)
	p.metrics.ObserveDocument(o.Status.String())
}

// table returns the partition's contribution to the merge. With interning
// on, this is where the symbol table is resolved and discarded.
func (p *partition) table() vocab.Counts {
	if p.interner != nil {
		c := p.interner.Resolve()
		p.interner = nil
		return c
	}
	return p.counts
}
