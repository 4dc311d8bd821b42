package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Compaile/ctrack/pkg/cmd/options"
	"github.com/Compaile/ctrack/pkg/cmd/report"
	"github.com/Compaile/ctrack/pkg/cmd/run"
	"github.com/Compaile/ctrack/pkg/cmd/status"
	"github.com/Compaile/ctrack/pkg/cmd/stop"
	"github.com/Compaile/ctrack/pkg/cmd/wait"
)

const defaultLogLevel = "info"

// NewCommand builds the ctrack-demo root command and wires every subcommand.
func NewCommand(opts *options.CommonOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ctrack-demo",
		Short: "ctrack-demo runs and inspects an in-process performance profiler",
		Long: `ctrack-demo is a sample harness around the ctrack profiling library.
It runs an instrumented workload, reports on the recorded call sites, and
manages the workload as a background daemon.`,
		DisableAutoGenTag: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", defaultLogLevel,
		"Log level (trace, debug, info, warn, error, fatal, panic)")

	cmd.AddCommand(run.NewCommand(opts))
	cmd.AddCommand(status.NewCommand(opts))
	cmd.AddCommand(stop.NewCommand(opts))
	cmd.AddCommand(wait.NewCommand(opts))
	cmd.AddCommand(report.NewCommand(opts))

	return cmd
}

// Execute builds the root command with a signal-aware context and runs it.
// It is called once from main.main.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	opts := options.NewCommonOptions(
		options.WithContext(ctx),
		options.WithLogger(logger),
	)

	cmd := NewCommand(opts)
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		level, err := log.ParseLevel(opts.LogLevel)
		if err != nil {
			return err
		}
		opts.Logger = opts.Logger.Level(level)
		return nil
	}

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
