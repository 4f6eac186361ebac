package aggregator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Topology is a strategy for spreading units over worker partitions.
type Topology interface {
	Name() string
	run(ctx context.Context, src corpus.Streamer, spawn func(id int) *partition) ([]*partition, error)
}

// FanOut lists every unit first and hands each worker a fixed contiguous
// slice of the list.
type FanOut struct {
	Workers int
}

func (FanOut) Name() string { return "fanout" }

func (f FanOut) run(ctx context.Context, src corpus.Streamer, spawn func(int) *partition) ([]*partition, error) {
	lister, ok := src.(corpus.Lister)
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnsupported, "fanout topology needs a source that can list its units, got %T", src)
	}
	units, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}

	n := max(min(f.Workers, len(units)), 1)
	parts := make([]*partition, n)
	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		p := spawn(i)
		parts[i] = p
		chunk := units[i*len(units)/n : (i+1)*len(units)/n]
		g.Go(func() error {
			p.metrics.WorkerStarted()
			defer p.metrics.WorkerStopped()
			for _, u := range chunk {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := p.fold(u); err != nil {
					return err
				}
			}
			p.logger.Debug("partition folded", "units", len(chunk))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// Stream runs one producer that walks the source and Workers-1 consumers
// (at least one) that fold units off a bounded queue. Closing the queue
// tells every consumer the input is exhausted.
type Stream struct {
	Workers   int
	QueueSize int
}

func (Stream) Name() string { return "stream" }

func (s Stream) run(ctx context.Context, src corpus.Streamer, spawn func(int) *partition) ([]*partition, error) {
	consumers := max(s.Workers-1, 1)
	queue := make(chan corpus.Unit, max(s.QueueSize, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(queue)
		return src.Stream(gctx, func(u corpus.Unit) error {
			select {
			case queue <- u:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	})

	parts := make([]*partition, consumers)
	for i := range consumers {
		p := spawn(i)
		parts[i] = p
		g.Go(func() error {
			p.metrics.WorkerStarted()
			defer p.metrics.WorkerStopped()
			for u := range queue {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := p.fold(u); err != nil {
					return err
				}
			}
			p.logger.Debug("consumer drained queue", "units", p.tally.units)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// ParseTopology resolves a configured topology name. "auto" (or empty)
// returns nil, meaning the choice is made per source.
func ParseTopology(name string, workers, queueSize int) (Topology, error) {
	switch name {
	case "", "auto":
		return nil, nil
	case "fanout":
		return FanOut{Workers: workers}, nil
	case "stream":
		return Stream{Workers: workers, QueueSize: queueSize}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "unknown topology %q", name)
	}
}
