// Package sink writes a finished result table to its destinations. Every
// sink receives the complete result exactly once.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/tracing"
)

type Sink interface {
	Name() string
	Write(ctx context.Context, res *aggregator.Result) error
	Close() error
}

// Open builds the sinks named in cfg.Output.Sinks. Networked sinks connect
// here, so a bad address fails before any counting starts.
func Open(ctx context.Context, cfg *config.Config, stdout io.Writer) ([]Sink, error) {
	var sinks []Sink
	fail := func(err error) ([]Sink, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, err
	}
	for _, name := range cfg.Output.Sinks {
		var (
			s   Sink
			err error
		)
		switch name {
		case "json":
			s = NewJSON(cfg.Output, stdout)
		case "table":
			s = NewTable(cfg.Output.Top, stdout)
		case "sqlite":
			s, err = OpenSQLite(ctx, cfg.SQLite.Path)
		case "postgres":
			s, err = OpenPostgres(ctx, cfg.Postgres)
		case "redis":
			s, err = OpenRedis(ctx, cfg.Redis)
		case "kafka":
			s = NewKafka(cfg.Kafka)
		default:
			err = apperrors.Newf(apperrors.ErrInvalidConfig, "unknown sink %q", name)
		}
		if err != nil {
			return fail(fmt.Errorf("opening %s sink: %w", name, err))
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// RegisterHealth adds a readiness probe for every sink backed by a
// database or cache.
func RegisterHealth(c *health.Checker, sinks []Sink) {
	for _, s := range sinks {
		if p, ok := s.(pinger); ok {
			c.Register(s.Name(), p.Ping)
		}
	}
}

// Writer fans one result out to every sink.
type Writer struct {
	sinks   []Sink
	timeout time.Duration
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewWriter(sinks []Sink, out config.OutputConfig, m *metrics.Metrics) *Writer {
	return &Writer{
		sinks:   sinks,
		timeout: out.Timeout,
		retry: resilience.RetryConfig{
			MaxAttempts: out.RetryAttempts,
			Retryable:   retryable,
		},
		metrics: m,
		logger:  logger.WithComponent("sink-writer"),
	}
}

// networked sinks talk to a remote service and are retried.
type networked interface {
	networked()
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, apperrors.ErrInvalidConfig)
}

// Write hands res to every sink in order and stops at the first failure.
func (w *Writer) Write(ctx context.Context, res *aggregator.Result) error {
	for _, s := range w.sinks {
		start := time.Now()
		_, span := tracing.Start(ctx, "sink:"+s.Name(), "")
		err := resilience.WithTimeout(ctx, w.timeout, s.Name(), func(ctx context.Context) error {
			if _, ok := s.(networked); !ok {
				return s.Write(ctx, res)
			}
			cfg := w.retry
			cfg.OnRetry = func(int, error) { w.metrics.ObserveRetry(s.Name()) }
			return resilience.Retry(ctx, s.Name()+" sink", cfg, func() error {
				return s.Write(ctx, res)
			})
		})
		span.End()
		w.metrics.ObserveSink(s.Name(), err, time.Since(start))
		if err != nil {
			if errors.Is(err, apperrors.ErrLocked) {
				return err
			}
			return apperrors.Wrap(apperrors.ErrSink, err, s.Name())
		}
		w.logger.Info("result written", "sink", s.Name(), "tokens", len(res.Counts), "duration", time.Since(start))
	}
	return nil
}

func (w *Writer) Close() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
