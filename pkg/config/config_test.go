package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tokenizer.Block != "devanagari" || cfg.Tokenizer.Strategy != "block" {
		t.Errorf("tokenizer = %+v", cfg.Tokenizer)
	}
	if cfg.Aggregator.FailurePolicy != "failfast" || cfg.Aggregator.Topology != "auto" {
		t.Errorf("aggregator = %+v", cfg.Aggregator)
	}
	if !slices.Equal(cfg.Output.Sinks, []string{"json"}) || cfg.Output.Path != "-" {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Input.TextField != "newsText" || cfg.Input.SourceField != "newsSource" {
		t.Errorf("input fields = %q, %q", cfg.Input.TextField, cfg.Input.SourceField)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "vocab.yaml", `
input:
  path: /data/news
  textField: body
sources:
  countsPath: /data/sources.json
  minFrequency: 100
aggregator:
  topology: stream
  workers: 6
  failurePolicy: skip
filter:
  minTermFrequency: 2
output:
  sinks: [json, sqlite]
  timeout: 30s
redis:
  ttl: 1h
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.Path != "/data/news" || cfg.Input.TextField != "body" {
		t.Errorf("input = %+v", cfg.Input)
	}
	if cfg.Input.SourceField != "newsSource" {
		t.Errorf("unset field lost its default: %q", cfg.Input.SourceField)
	}
	if cfg.Sources.MinFrequency != 100 || cfg.Aggregator.Workers != 6 || cfg.Aggregator.FailurePolicy != "skip" {
		t.Errorf("sources = %+v, aggregator = %+v", cfg.Sources, cfg.Aggregator)
	}
	if cfg.Filter.MinTermFrequency != 2 {
		t.Errorf("filter = %+v", cfg.Filter)
	}
	if !slices.Equal(cfg.Output.Sinks, []string{"json", "sqlite"}) || cfg.Output.Timeout != 30*time.Second {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Errorf("redis ttl = %v", cfg.Redis.TTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "vocab.toml", `
[input]
path = "/data/news"

[tokenizer]
block = "U+0980-U+09FF"
normalize = "nfc"

[aggregator]
intern = true
mergeShards = 8

[output]
sinks = ["table"]
top = 10
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tokenizer.Block != "U+0980-U+09FF" || cfg.Tokenizer.Normalize != "nfc" {
		t.Errorf("tokenizer = %+v", cfg.Tokenizer)
	}
	if !cfg.Aggregator.Intern || cfg.Aggregator.MergeShards != 8 {
		t.Errorf("aggregator = %+v", cfg.Aggregator)
	}
	if !slices.Equal(cfg.Output.Sinks, []string{"table"}) || cfg.Output.Top != 10 {
		t.Errorf("output = %+v", cfg.Output)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
	path := writeConfig(t, "bad.yaml", "input: [unclosed")
	if _, err := Load(path); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VS_INPUT_PATH", "/env/corpus")
	t.Setenv("VS_MIN_SOURCE_FREQUENCY", "50")
	t.Setenv("VS_MIN_DOCUMENT_FREQUENCY", "3")
	t.Setenv("VS_WORKERS", "not-a-number")
	t.Setenv("VS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("VS_LOGGING_LEVEL", "debug")

	path := writeConfig(t, "vocab.yaml", "input:\n  path: /file/corpus\naggregator:\n  workers: 4\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Input.Path != "/env/corpus" {
		t.Errorf("input path = %q, env should win over the file", cfg.Input.Path)
	}
	if cfg.Sources.MinFrequency != 50 || cfg.Filter.MinDocumentFrequency != 3 {
		t.Errorf("sources = %+v, filter = %+v", cfg.Sources, cfg.Filter)
	}
	if cfg.Aggregator.Workers != 4 {
		t.Errorf("workers = %d, an unparsable override should be ignored", cfg.Aggregator.Workers)
	}
	if !slices.Equal(cfg.Kafka.Brokers, []string{"k1:9092", "k2:9092"}) {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults with a path", mutate: func(c *Config) {}, ok: true},
		{name: "kafka input without a path", mutate: func(c *Config) { c.Input.Path = ""; c.Input.Kafka = true }, ok: true},
		{name: "no input", mutate: func(c *Config) { c.Input.Path = "" }},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Input.Kafka = true; c.Kafka.Brokers = nil }},
		{name: "negative source frequency", mutate: func(c *Config) { c.Sources.MinFrequency = -1 }},
		{name: "negative tf threshold", mutate: func(c *Config) { c.Filter.MinTermFrequency = -2 }},
		{name: "unknown strategy", mutate: func(c *Config) { c.Tokenizer.Strategy = "ngram" }},
		{name: "unknown normal form", mutate: func(c *Config) { c.Tokenizer.Normalize = "nfd" }},
		{name: "upper-case normal form", mutate: func(c *Config) { c.Tokenizer.Normalize = "NFC" }, ok: true},
		{name: "upper-case policy", mutate: func(c *Config) { c.Aggregator.FailurePolicy = "Skip" }, ok: true},
		{name: "unknown topology", mutate: func(c *Config) { c.Aggregator.Topology = "mesh" }},
		{name: "unknown policy", mutate: func(c *Config) { c.Aggregator.FailurePolicy = "retry" }},
		{name: "negative workers", mutate: func(c *Config) { c.Aggregator.Workers = -1 }},
		{name: "no sinks", mutate: func(c *Config) { c.Output.Sinks = nil }},
		{name: "unknown sink", mutate: func(c *Config) { c.Output.Sinks = []string{"json", "s3"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Input.Path = "/data"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Errorf("error = %v, want ErrInvalidConfig", err)
			}
			if apperrors.ExitCode(err) != apperrors.ExitConfig {
				t.Errorf("exit code = %d", apperrors.ExitCode(err))
			}
		})
	}
}
