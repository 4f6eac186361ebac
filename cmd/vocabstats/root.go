package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/vocabstats/pkg/logger"
)

type commandContext struct {
	configFlag *string
	logLevel   *string
	logFormat  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

// ensureConfig loads the configuration once per process: defaults, then
// the file, then VS_* variables. Command flags are layered on afterwards.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(*c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		if *c.logLevel != "" {
			cfg.Logging.Level = *c.logLevel
		}
		if *c.logFormat != "" {
			cfg.Logging.Format = *c.logFormat
		}
		logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var configFlag, logLevel, logFormat string
	ctx := &commandContext{configFlag: &configFlag, logLevel: &logLevel, logFormat: &logFormat}

	rootCmd := &cobra.Command{
		Use:           "vocabstats",
		Short:         "Term and document frequency statistics for single-script corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (.yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json, text, auto")

	rootCmd.AddCommand(newCountCommand(ctx))
	rootCmd.AddCommand(newSourcesCommand(ctx))
	rootCmd.AddCommand(newExplodeCommand(ctx))

	return rootCmd
}
