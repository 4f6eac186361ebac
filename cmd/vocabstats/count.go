package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/aggregator"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/sink"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/source"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/tracing"
)

type countFlags struct {
	inputPath     string
	kafka         bool
	sourceCounts  string
	minSrcFreq    int64
	languages     []string
	minTF         int64
	minDF         int64
	workers       int
	topology      string
	intern        bool
	failurePolicy string
	block         string
	sinks         []string
	output        string
	split         bool
	report        bool
	top           int
	progress      bool
}

func newCountCommand(ctx *commandContext) *cobra.Command {
	var f countFlags
	cmd := &cobra.Command{
		Use:   "count [input-path]",
		Short: "Count token and document frequencies over a corpus",
		Long: `Count walks a directory tree, a tar archive or a Kafka partition, folds
every eligible document into per-worker tables, merges them and writes the
filtered result to the configured sinks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if err := cmd.Flags().Set("input-path", args[0]); err != nil {
					return err
				}
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runCount(cmd.Context(), cfg, cmd.OutOrStdout(), f.progress)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.inputPath, "input-path", "i", "", "Directory, file or tar archive to read")
	fl.BoolVar(&f.kafka, "kafka", false, "Read documents from the configured Kafka partition instead of a path")
	fl.StringVar(&f.sourceCounts, "source-counts", "", "JSON table of document counts per source")
	fl.Int64Var(&f.minSrcFreq, "min-src-freq", 0, "Minimum source count for a document to be eligible")
	fl.StringSliceVar(&f.languages, "languages", nil, "Only count documents detected as these ISO 639-1 languages")
	fl.Int64Var(&f.minTF, "min-tf", 0, "Drop tokens with a lower term frequency")
	fl.Int64Var(&f.minDF, "min-df", 0, "Drop tokens with a lower document frequency")
	fl.IntVarP(&f.workers, "workers", "w", 0, "Worker count (default: number of CPUs)")
	fl.StringVar(&f.topology, "topology", "", "Worker topology: auto, fanout, stream")
	fl.BoolVar(&f.intern, "intern", false, "Intern tokens to integer symbols while folding")
	fl.StringVar(&f.failurePolicy, "failure-policy", "", "What a bad input does: failfast or skip")
	fl.StringVar(&f.block, "block", "", "Unicode block to tokenize, by name or as U+XXXX-U+YYYY")
	fl.StringSliceVar(&f.sinks, "sink", nil, "Result sinks: json, table, sqlite, postgres, redis, kafka")
	fl.StringVarP(&f.output, "output", "o", "", "JSON output file ('-' for stdout)")
	fl.BoolVar(&f.split, "split", false, "Write separate term-frequency and document-frequency objects")
	fl.BoolVar(&f.report, "report", false, "Wrap the JSON output with the run report")
	fl.IntVar(&f.top, "top", 0, "Rows shown by the table sink")
	fl.BoolVar(&f.progress, "progress", true, "Show a progress bar when stderr is a terminal")

	return cmd
}

// apply layers explicitly set flags over the loaded configuration.
func (f *countFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("input-path") {
		cfg.Input.Path = f.inputPath
	}
	if set("kafka") {
		cfg.Input.Kafka = f.kafka
	}
	if set("source-counts") {
		cfg.Sources.CountsPath = f.sourceCounts
	}
	if set("min-src-freq") {
		cfg.Sources.MinFrequency = f.minSrcFreq
	}
	if set("languages") {
		cfg.Sources.Languages = f.languages
	}
	if set("min-tf") {
		cfg.Filter.MinTermFrequency = f.minTF
	}
	if set("min-df") {
		cfg.Filter.MinDocumentFrequency = f.minDF
	}
	if set("workers") {
		cfg.Aggregator.Workers = f.workers
	}
	if set("topology") {
		cfg.Aggregator.Topology = f.topology
	}
	if set("intern") {
		cfg.Aggregator.Intern = f.intern
	}
	if set("failure-policy") {
		cfg.Aggregator.FailurePolicy = f.failurePolicy
	}
	if set("block") {
		cfg.Tokenizer.Block = f.block
	}
	if set("sink") {
		cfg.Output.Sinks = f.sinks
	}
	if set("output") {
		cfg.Output.Path = f.output
	}
	if set("split") {
		cfg.Output.Split = f.split
	}
	if set("report") {
		cfg.Output.Report = f.report
	}
	if set("top") {
		cfg.Output.Top = f.top
	}
}

func runCount(ctx context.Context, cfg *config.Config, stdout io.Writer, showProgress bool) error {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "count")
	ctx, span := tracing.Start(ctx, "count", runID)
	defer func() {
		span.End()
		span.Log(logger.WithComponent("trace"))
	}()

	rule, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return err
	}
	eligibility, err := buildEligibility(cfg.Sources)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checker := health.NewChecker()
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, checker)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	src, err := corpus.Open(cfg.Input, cfg.Kafka)
	if err != nil {
		return err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}

	sinks, err := sink.Open(ctx, cfg, stdout)
	if err != nil {
		return err
	}
	sink.RegisterHealth(checker, sinks)
	writer := sink.NewWriter(sinks, cfg.Output, m)
	defer writer.Close()

	opts, err := aggregator.OptionsFromConfig(cfg.Aggregator, cfg.Filter)
	if err != nil {
		return err
	}
	opts.Eligibility = eligibility
	opts.Metrics = m
	var bar *progressbar.ProgressBar
	if showProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions64(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("folding units"),
			progressbar.OptionShowCount(),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		opts.Progress = func() { bar.Add(1) }
	}

	log.Info("run started", "input", inputName(cfg.Input), "sinks", cfg.Output.Sinks)
	res, err := aggregator.New(vocab.NewCounter(rule), opts).Run(ctx, src)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, res); err != nil {
		return err
	}
	log.Info("run finished", "report", res.Report.String())
	return nil
}

func buildEligibility(cfg config.SourcesConfig) (source.Eligibility, error) {
	rules := source.Rules{MinCount: cfg.MinFrequency, Languages: cfg.Languages}
	if cfg.CountsPath != "" {
		table, err := source.LoadTable(cfg.CountsPath)
		if err != nil {
			return nil, err
		}
		slog.Debug("source table loaded", "path", cfg.CountsPath, "sources", len(table))
		rules.Table = table
	}
	return source.Build(rules)
}

func inputName(in config.InputConfig) string {
	if in.Kafka {
		return "kafka"
	}
	return in.Path
}
