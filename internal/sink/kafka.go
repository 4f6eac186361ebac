package sink

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/kafka"
)

type publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

// Kafka publishes one message per token to the result topic, keyed by the
// token so every run's statistics for a token land on the same partition.
type Kafka struct {
	producer publisher
	batch    int
}

func NewKafka(cfg config.KafkaConfig) *Kafka {
	return &Kafka{
		producer: kafka.NewProducer(cfg, cfg.ResultTopic),
		batch:    max(cfg.ResultBatchSize, 1),
	}
}

func (k *Kafka) Name() string { return "kafka" }

func (k *Kafka) Close() error { return k.producer.Close() }

func (k *Kafka) networked() {}

// TokenStat is the value of one result message.
type TokenStat struct {
	RunID string `json:"runId,omitempty"`
	vocab.Entry
}

func (k *Kafka) Write(ctx context.Context, res *aggregator.Result) error {
	headers := map[string]string{"run-id": res.Report.RunID}
	events := make([]kafka.Event, 0, k.batch)
	for _, e := range res.Counts.Sorted() {
		events = append(events, kafka.Event{
			Key:     e.Token,
			Value:   TokenStat{RunID: res.Report.RunID, Entry: e},
			Headers: headers,
		})
		if len(events) == k.batch {
			if err := k.producer.PublishBatch(ctx, events); err != nil {
				return err
			}
			events = events[:0]
		}
	}
	if len(events) > 0 {
		return k.producer.PublishBatch(ctx, events)
	}
	return nil
}
