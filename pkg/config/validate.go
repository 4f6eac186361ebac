package config

import (
	"slices"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

var (
	knownTopologies = []string{"auto", "fanout", "stream"}
	knownPolicies   = []string{"failfast", "skip"}
	knownStrategies = []string{"block", "split"}
	knownNormalForm = []string{"", "none", "nfc", "nfkc"}
	knownSinks      = []string{"json", "table", "postgres", "sqlite", "redis", "kafka"}
)

// Validate reports the first configuration problem found. It runs once,
// before any document is read.
func (c *Config) Validate() error {
	if c.Input.Path == "" && !c.Input.Kafka {
		return apperrors.New(apperrors.ErrInvalidConfig, "input path is required")
	}
	if c.Input.Kafka && len(c.Kafka.Brokers) == 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "kafka input needs at least one broker")
	}
	if c.Sources.MinFrequency < 0 {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "min source frequency must be >= 0, got %d", c.Sources.MinFrequency)
	}
	if c.Filter.MinTermFrequency < 0 || c.Filter.MinDocumentFrequency < 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "term and document frequency thresholds must be >= 0")
	}
	if !slices.Contains(knownStrategies, c.Tokenizer.Strategy) {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown tokenizer strategy %q", c.Tokenizer.Strategy)
	}
	if !slices.Contains(knownNormalForm, strings.ToLower(c.Tokenizer.Normalize)) {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown normalization form %q", c.Tokenizer.Normalize)
	}
	if !slices.Contains(knownTopologies, c.Aggregator.Topology) {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown topology %q", c.Aggregator.Topology)
	}
	if !slices.Contains(knownPolicies, strings.ToLower(c.Aggregator.FailurePolicy)) {
		return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown failure policy %q", c.Aggregator.FailurePolicy)
	}
	if c.Aggregator.Workers < 0 || c.Aggregator.QueueSize < 0 || c.Aggregator.MergeShards < 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "workers, queue size and merge shards must be >= 0")
	}
	if len(c.Output.Sinks) == 0 {
		return apperrors.New(apperrors.ErrInvalidConfig, "at least one output sink is required")
	}
	for _, s := range c.Output.Sinks {
		if !slices.Contains(knownSinks, s) {
			return apperrors.Newf(apperrors.ErrInvalidConfig, "unknown sink %q", s)
		}
	}
	return nil
}
