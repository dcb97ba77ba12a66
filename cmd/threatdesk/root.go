package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/threatdesk/internal/config"
	tdlog "github.com/bryanwahyu/threatdesk/internal/log"
)

type rootOptions struct {
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "threatdesk",
		Short:         "Operator threat console: AI verdicts for links and snippets, with history and alerts",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd.ErrOrStderr())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.PathFromEnv(), "config file (env "+config.EnvConfigPath+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newScanCmd(opts),
		newHistoryCmd(opts),
		newProfileCmd(opts),
	)
	return cmd
}

func (o *rootOptions) init(stderr io.Writer) error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("config load error: %w", err)
	}
	level := tdlog.ParseLevel(cfg.Log.Level)
	if o.verbose {
		level = slog.LevelDebug
	}
	o.cfg = cfg
	o.logger = tdlog.New(stderr, level, cfg.Log.Format)
	o.logger.Debug("config loaded", "path", o.configPath, "storage", cfg.Storage.Driver)
	return nil
}
