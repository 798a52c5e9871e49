// Package cli wires configuration, logging and the broker transport into
// the mosqmon dashboard.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/mosqmon/internal/broker"
	"github.com/Dicklesworthstone/mosqmon/internal/config"
	"github.com/Dicklesworthstone/mosqmon/internal/errors"
	"github.com/Dicklesworthstone/mosqmon/internal/logging"
	"github.com/Dicklesworthstone/mosqmon/internal/ui"
)

// Version information set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

// isTerminal reports whether stdout can host the dashboard.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// NewRootCmd builds the mosqmon command.
func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mosqmon",
		Short: "Live terminal dashboard for mosquitto $SYS statistics",
		Long: `Connect to an MQTT broker, subscribe to its $SYS statistics topics and
show them as a continuously refreshed dashboard.

Keys:
  q  quit
  c  connect with the configured settings
  d  disconnect

Examples:
  mosqmon
  mosqmon --host broker.local -p 1884
  mosqmon -n -k 30`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	config.Flags(cmd.Flags())
	cmd.Flags().StringVar(&configPath, "config", "", "read settings from this YAML/TOML/JSON file")
	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	if !isTerminal() {
		return errors.New(errors.ErrTerminal,
			"Standard output is not a terminal",
			"Run mosqmon from an interactive terminal")
	}

	log, closer, err := logging.New(cfg.LogFile, cfg.Debug)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+cfg.LogFile,
			"Pick a writable path with --log-file")
	}
	defer closer.Close()
	logging.WirePaho(log, cfg.Debug)

	log.WithField("version", version).Info("starting")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := broker.New(cfg.ClientID, log)
	defer client.Close()

	if err := ui.RunTUI(ctx, cfg, client, log); err != nil {
		log.WithError(err).Error("exiting")
		return err
	}
	log.Info("bye")
	return nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return execute(NewRootCmd(), os.Args[1:], os.Stderr)
}

func execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
