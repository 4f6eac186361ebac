// Package aggregator runs the parallel fold-reduce over a corpus: units are
// spread over worker partitions, each partition folds its documents into a
// private table, and the tables are merged and filtered once every worker
// has finished.
package aggregator

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/source"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/tracing"
)

// Options configures an Aggregator. Zero values pick sensible defaults.
type Options struct {
	// Topology is nil for automatic selection: FanOut when the source can
	// list its units, Stream otherwise.
	Topology    Topology
	Workers     int
	QueueSize   int
	Intern      bool
	MergeShards int
	Policy      Policy
	Eligibility source.Eligibility
	Thresholds  vocab.Thresholds
	Metrics     *metrics.Metrics
	// Progress is called after every unit, from worker goroutines.
	Progress func()
}

// OptionsFromConfig maps the aggregator and filter sections onto Options.
// Eligibility, metrics and progress are left for the caller.
func OptionsFromConfig(agg config.AggregatorConfig, filter config.FilterConfig) (Options, error) {
	policy, err := ParsePolicy(agg.FailurePolicy)
	if err != nil {
		return Options{}, err
	}
	workers := agg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	topo, err := ParseTopology(agg.Topology, workers, agg.QueueSize)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Topology:    topo,
		Workers:     workers,
		QueueSize:   agg.QueueSize,
		Intern:      agg.Intern,
		MergeShards: agg.MergeShards,
		Policy:      policy,
		Thresholds: vocab.Thresholds{
			MinTF: filter.MinTermFrequency,
			MinDF: filter.MinDocumentFrequency,
		},
	}, nil
}

// Result is the complete output of one run.
type Result struct {
	Counts vocab.Counts
	Report Report
}

type Aggregator struct {
	counter *vocab.Counter
	opts    Options
}

func New(counter *vocab.Counter, opts Options) *Aggregator {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 2 * opts.Workers
	}
	if opts.Eligibility == nil {
		opts.Eligibility = source.All{}
	}
	return &Aggregator{counter: counter, opts: opts}
}

func (a *Aggregator) topologyFor(src corpus.Streamer) Topology {
	if a.opts.Topology != nil {
		return a.opts.Topology
	}
	if _, ok := src.(corpus.Lister); ok {
		return FanOut{Workers: a.opts.Workers}
	}
	return Stream{Workers: a.opts.Workers, QueueSize: a.opts.QueueSize}
}

// Run folds every unit of src and returns the merged, filtered table. On a
// FailFast unit error or cancellation it returns no result.
func (a *Aggregator) Run(ctx context.Context, src corpus.Streamer) (*Result, error) {
	start := time.Now()
	topo := a.topologyFor(src)
	log := logger.FromContext(ctx).With("component", "aggregator", "topology", topo.Name())
	log.Info("aggregation started",
		"workers", a.opts.Workers,
		"policy", a.opts.Policy.String(),
		"intern", a.opts.Intern,
	)

	ctx, span := tracing.Start(ctx, "aggregate", logger.RunID(ctx))
	defer span.End()
	span.SetAttr("topology", topo.Name())

	parts, err := topo.run(ctx, src, func(id int) *partition {
		p := &partition{
			id:       id,
			counter:  a.counter,
			eligible: a.opts.Eligibility,
			policy:   a.opts.Policy,
			metrics:  a.opts.Metrics,
			progress: a.opts.Progress,
			logger:   log.With("partition", id),
		}
		if a.opts.Intern {
			p.interner = vocab.NewInterner()
		} else {
			p.counts = vocab.Counts{}
		}
		return p
	})
	if err != nil {
		return nil, fmt.Errorf("%s aggregation: %w", topo.Name(), err)
	}

	report := Report{
		RunID:     logger.RunID(ctx),
		Topology:  topo.Name(),
		Policy:    a.opts.Policy.String(),
		StartedAt: start,
	}
	tables := make([]vocab.Counts, len(parts))
	for i, p := range parts {
		tables[i] = p.table()
		report.absorb(&p.tally)
	}
	report.sortSkipped()

	mergeStart := time.Now()
	_, mergeSpan := tracing.Start(ctx, "merge", "")
	counts := vocab.ReduceSharded(tables, a.opts.MergeShards)
	report.VocabularyBefore = len(counts)
	removed := a.opts.Thresholds.Apply(counts)
	report.VocabularyAfter = len(counts)
	mergeSpan.SetAttr("tables", len(tables))
	mergeSpan.SetAttr("vocabulary", len(counts))
	mergeSpan.End()
	a.opts.Metrics.ObserveMerge(time.Since(mergeStart), len(counts))
	report.Duration = time.Since(start)

	log.Info("aggregation finished",
		"units", report.Units,
		"documents", report.Counted,
		"ineligible", report.Ineligible,
		"skipped", len(report.Skipped),
		"vocabulary", report.VocabularyAfter,
		"filtered", removed,
		"merge_duration", time.Since(mergeStart),
		"duration", report.Duration,
	)
	return &Result{Counts: counts, Report: report}, nil
}
