package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/kafka"
)

// Topic reads a bounded slice of a Kafka partition: every message present
// when the read starts. Each message value is one JSON document object.
type Topic struct {
	consumer *kafka.Consumer
	dec      Decoder
}

func NewTopic(consumer *kafka.Consumer, dec Decoder) *Topic {
	return &Topic{consumer: consumer, dec: dec}
}

func (t *Topic) Stream(ctx context.Context, emit func(Unit) error) error {
	return t.consumer.Drain(ctx, func(ctx context.Context, msg kafka.Message) error {
		name := fmt.Sprintf("%s/%d/%d.json", msg.Topic, msg.Partition, msg.Offset)
		return emit(NewUnit(name, msg.Value, t.dec))
	})
}

func (t *Topic) Close() error {
	return t.consumer.Close()
}
