package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/redis"
)

const redisBatch = 1000

// Redis stores a run as two hashes, <prefix>:<run>:tf and <prefix>:<run>:df,
// and points <prefix>:latest at the run id once both are complete.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	c, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Redis{client: c, prefix: cfg.KeyPrefix, ttl: cfg.TTL}, nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) networked() {}

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx) }

func (r *Redis) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (r *Redis) Write(ctx context.Context, res *aggregator.Result) error {
	runID := res.Report.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	// A retried write starts from a clean slate.
	if _, err := r.client.FlushByPattern(ctx, r.key(runID, "*")); err != nil {
		return err
	}

	tf := make([]redis.HashField, 0, len(res.Counts))
	df := make([]redis.HashField, 0, len(res.Counts))
	for tok, p := range res.Counts {
		tf = append(tf, redis.HashField{Field: tok, Value: p.TF})
		df = append(df, redis.HashField{Field: tok, Value: p.DF})
	}
	if err := r.client.HSetPipelined(ctx, r.key(runID, "tf"), tf, redisBatch, r.ttl); err != nil {
		return err
	}
	if err := r.client.HSetPipelined(ctx, r.key(runID, "df"), df, redisBatch, r.ttl); err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key("latest"), runID, 0); err != nil {
		return fmt.Errorf("updating latest run: %w", err)
	}
	return nil
}
