// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. The producer serialises events as JSON, while the
// consumer drains a partition up to its high-water mark through a
// MessageHandler callback.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Message is the part of a Kafka message handlers see.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
}

// MessageHandler is a callback invoked for each Kafka message.
type MessageHandler func(ctx context.Context, msg Message) error

// drainIdle bounds how long Drain waits for a message before asking the
// broker whether anything is left to read.
const drainIdle = 5 * time.Second

// Consumer reads one partition of a topic without a consumer group.
type Consumer struct {
	brokers   []string
	topic     string
	partition int
	idle      time.Duration
	reader    *kafka.Reader
	logger    *slog.Logger
}

// NewConsumer creates a Consumer for the configured document topic and
// partition.
func NewConsumer(cfg config.KafkaConfig) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     cfg.DocumentTopic,
		Partition: cfg.Partition,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	return &Consumer{
		brokers:   cfg.Brokers,
		topic:     cfg.DocumentTopic,
		partition: cfg.Partition,
		idle:      drainIdle,
		reader:    r,
		logger:    slog.Default().With("component", "kafka-consumer", "topic", cfg.DocumentTopic, "partition", cfg.Partition),
	}
}

// Drain hands every message from the first offset up to the high-water
// mark observed at call time to handler, then returns. Messages produced
// after the call starts are not read. The high-water mark of a
// transactional topic can sit past control records that are never
// delivered, so Drain also stops once the reader reports no lag.
func (c *Consumer) Drain(ctx context.Context, handler MessageHandler) error {
	first, last, err := c.bounds(ctx)
	if err != nil {
		return err
	}
	c.logger.Info("draining partition", "first_offset", first, "last_offset", last)
	if last <= first {
		return nil
	}
	if err := c.reader.SetOffset(first); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", first, err)
	}
	var n, idle int
	for {
		msg, err := c.fetch(ctx)
		if errors.Is(err, errIdle) {
			lag, lagErr := c.reader.ReadLag(ctx)
			if lagErr != nil {
				return fmt.Errorf("reading lag after %d messages: %w", n, lagErr)
			}
			if lag <= 0 {
				c.logger.Info("partition drained", "messages", n, "reason", "no lag")
				return nil
			}
			// The remaining offsets are not deliverable, e.g. trailing
			// transaction markers.
			if idle++; idle >= 2 {
				c.logger.Warn("partition drained with undeliverable tail", "messages", n, "lag", lag)
				return nil
			}
			continue
		}
		idle = 0
		if err != nil {
			return fmt.Errorf("fetching message after %d: %w", n, err)
		}
		c.logger.Debug("message received",
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if err := handler(ctx, Message{
			Topic:     msg.Topic,
			Partition: msg.Partition,
			Offset:    msg.Offset,
			Key:       msg.Key,
			Value:     msg.Value,
		}); err != nil {
			return err
		}
		n++
		if caughtUp(msg.Offset, msg.HighWaterMark, last) {
			c.logger.Info("partition drained", "messages", n)
			return nil
		}
	}
}

var errIdle = errors.New("no message within idle window")

// fetch waits at most c.idle for the next message.
func (c *Consumer) fetch(ctx context.Context) (kafka.Message, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.idle)
	defer cancel()
	msg, err := c.reader.FetchMessage(fetchCtx)
	if err != nil && ctx.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return msg, errIdle
	}
	return msg, err
}

// caughtUp reports whether offset is the last message Drain should read,
// given the partition's high-water mark at start (last) and the one
// reported with the message (hwm, 0 when unknown).
func caughtUp(offset, hwm, last int64) bool {
	if offset >= last-1 {
		return true
	}
	return hwm > 0 && offset >= hwm-1
}

func (c *Consumer) bounds(ctx context.Context) (int64, int64, error) {
	if len(c.brokers) == 0 {
		return 0, 0, fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialLeader(ctx, "tcp", c.brokers[0], c.topic, c.partition)
	if err != nil {
		return 0, 0, fmt.Errorf("dialing leader for %s/%d: %w", c.topic, c.partition, err)
	}
	defer conn.Close()
	first, last, err := conn.ReadOffsets()
	if err != nil {
		return 0, 0, fmt.Errorf("reading offsets for %s/%d: %w", c.topic, c.partition, err)
	}
	return first, last, nil
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
