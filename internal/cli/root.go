// Package cli wires configuration, the dataset and the dashboard into the
// lifeexp command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeexp/internal/config"
	"lifeexp/internal/dataset"
	"lifeexp/internal/observability"
)

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	dataPath   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:          "lifeexp",
		Short:        "Life expectancy at birth dashboard (CIA World Factbook 2017)",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&opts.dataPath, "data", "", "country CSV (overrides config and LIFEEXP_DATA)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")

	cmd.AddCommand(serveCmd(opts), renderCmd(opts), validateCmd(opts))
	return cmd
}

// load resolves config from file, environment and flags, in that order.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.dataPath != "" {
		cfg.Data.Path = o.dataPath
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}

func loadDataset(cfg *config.Config, logger *zap.Logger) (*dataset.Dataset, error) {
	ds, err := dataset.Load(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("dataset loaded", zap.String("path", cfg.Data.Path), zap.Int("rows", ds.Len()))
	return ds, nil
}
