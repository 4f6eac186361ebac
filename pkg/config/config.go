// Package config loads and validates vocabstats configuration from YAML or
// TOML files with environment-variable overrides. It provides typed structs
// for every subsystem (Input, Sources, Tokenizer, Aggregator, Filter, Output,
// and the optional Postgres, SQLite, Redis and Kafka sinks).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/errors"
)

// Config is the top-level application configuration.
type Config struct {
	Input      InputConfig      `yaml:"input" toml:"input"`
	Sources    SourcesConfig    `yaml:"sources" toml:"sources"`
	Tokenizer  TokenizerConfig  `yaml:"tokenizer" toml:"tokenizer"`
	Aggregator AggregatorConfig `yaml:"aggregator" toml:"aggregator"`
	Filter     FilterConfig     `yaml:"filter" toml:"filter"`
	Output     OutputConfig     `yaml:"output" toml:"output"`
	Postgres   PostgresConfig   `yaml:"postgres" toml:"postgres"`
	SQLite     SQLiteConfig     `yaml:"sqlite" toml:"sqlite"`
	Redis      RedisConfig      `yaml:"redis" toml:"redis"`
	Kafka      KafkaConfig      `yaml:"kafka" toml:"kafka"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
}

// InputConfig selects the document source and the JSON field names used to
// decode structured documents.
type InputConfig struct {
	Path          string `yaml:"path" toml:"path"`
	Kafka         bool   `yaml:"kafka" toml:"kafka"`
	TextField     string `yaml:"textField" toml:"textField"`
	SourceField   string `yaml:"sourceField" toml:"sourceField"`
	IncludeHidden bool   `yaml:"includeHidden" toml:"includeHidden"`
}

// SourcesConfig controls document eligibility.
type SourcesConfig struct {
	CountsPath   string   `yaml:"countsPath" toml:"countsPath"`
	MinFrequency int64    `yaml:"minFrequency" toml:"minFrequency"`
	Languages    []string `yaml:"languages" toml:"languages"`
}

// TokenizerConfig selects the tokenization rule.
type TokenizerConfig struct {
	Strategy  string `yaml:"strategy" toml:"strategy"`
	Block     string `yaml:"block" toml:"block"`
	Pattern   string `yaml:"pattern" toml:"pattern"`
	Normalize string `yaml:"normalize" toml:"normalize"`
}

// AggregatorConfig controls the worker pool and failure handling.
type AggregatorConfig struct {
	Topology      string `yaml:"topology" toml:"topology"`
	Workers       int    `yaml:"workers" toml:"workers"`
	QueueSize     int    `yaml:"queueSize" toml:"queueSize"`
	Intern        bool   `yaml:"intern" toml:"intern"`
	MergeShards   int    `yaml:"mergeShards" toml:"mergeShards"`
	FailurePolicy string `yaml:"failurePolicy" toml:"failurePolicy"`
}

// FilterConfig holds the post-aggregation thresholds. Zero disables a bound.
type FilterConfig struct {
	MinTermFrequency     int64 `yaml:"minTermFrequency" toml:"minTermFrequency"`
	MinDocumentFrequency int64 `yaml:"minDocumentFrequency" toml:"minDocumentFrequency"`
}

// OutputConfig selects the sinks the final result is written to.
type OutputConfig struct {
	Sinks  []string `yaml:"sinks" toml:"sinks"`
	Path   string   `yaml:"path" toml:"path"`
	Sorted bool     `yaml:"sorted" toml:"sorted"`
	Split  bool     `yaml:"split" toml:"split"`
	Report bool     `yaml:"report" toml:"report"`
	Top    int      `yaml:"top" toml:"top"`
	// Timeout bounds each sink write. RetryAttempts applies to networked
	// sinks only.
	Timeout       time.Duration `yaml:"timeout" toml:"timeout"`
	RetryAttempts int           `yaml:"retryAttempts" toml:"retryAttempts"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host" toml:"host"`
	Port            int           `yaml:"port" toml:"port"`
	Database        string        `yaml:"database" toml:"database"`
	User            string        `yaml:"user" toml:"user"`
	Password        string        `yaml:"password" toml:"password"`
	SSLMode         string        `yaml:"sslMode" toml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns" toml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns" toml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" toml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig holds the path of the SQLite results database.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers         []string `yaml:"brokers" toml:"brokers"`
	DocumentTopic   string   `yaml:"documentTopic" toml:"documentTopic"`
	Partition       int      `yaml:"partition" toml:"partition"`
	ResultTopic     string   `yaml:"resultTopic" toml:"resultTopic"`
	ResultBatchSize int      `yaml:"resultBatchSize" toml:"resultBatchSize"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr      string        `yaml:"addr" toml:"addr"`
	Password  string        `yaml:"password" toml:"password"`
	DB        int           `yaml:"db" toml:"db"`
	PoolSize  int           `yaml:"poolSize" toml:"poolSize"`
	KeyPrefix string        `yaml:"keyPrefix" toml:"keyPrefix"`
	TTL       time.Duration `yaml:"ttl" toml:"ttl"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled"`
	Port    int  `yaml:"port" toml:"port"`
}

// Load reads a YAML or TOML config file (if provided) and applies
// environment-variable overrides. The format is chosen by file extension;
// anything other than .toml is parsed as YAML.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = toml.Unmarshal(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidConfig, "parsing config file %s: %v", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config that tokenizes Devanagari text with the block
// rule, folds on every CPU and writes sorted JSON to stdout.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			TextField:   "newsText",
			SourceField: "newsSource",
		},
		Tokenizer: TokenizerConfig{
			Strategy: "block",
			Block:    "devanagari",
		},
		Aggregator: AggregatorConfig{
			Topology:      "auto",
			QueueSize:     64,
			MergeShards:   1,
			FailurePolicy: "failfast",
		},
		Output: OutputConfig{
			Sinks:         []string{"json"},
			Path:          "-",
			Sorted:        true,
			Top:           25,
			Timeout:       2 * time.Minute,
			RetryAttempts: 3,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "vocabstats",
			User:            "vocabstats",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "vocabstats.db",
		},
		Kafka: KafkaConfig{
			Brokers:         []string{"localhost:9092"},
			DocumentTopic:   "documents",
			ResultTopic:     "vocab-stats",
			ResultBatchSize: 500,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			PoolSize:  10,
			KeyPrefix: "vocab",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads VS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VS_INPUT_PATH"); v != "" {
		cfg.Input.Path = v
	}
	if v := os.Getenv("VS_SOURCE_COUNTS_PATH"); v != "" {
		cfg.Sources.CountsPath = v
	}
	if v := os.Getenv("VS_MIN_SOURCE_FREQUENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sources.MinFrequency = n
		}
	}
	if v := os.Getenv("VS_MIN_TERM_FREQUENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Filter.MinTermFrequency = n
		}
	}
	if v := os.Getenv("VS_MIN_DOCUMENT_FREQUENCY"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Filter.MinDocumentFrequency = n
		}
	}
	if v := os.Getenv("VS_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Aggregator.Workers = n
		}
	}
	if v := os.Getenv("VS_FAILURE_POLICY"); v != "" {
		cfg.Aggregator.FailurePolicy = v
	}
	if v := os.Getenv("VS_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("VS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("VS_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("VS_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("VS_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("VS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("VS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("VS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("VS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
