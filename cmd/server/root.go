package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"aquatallyon/internal/platform/config"
)

// app carries settings loaded once by the root command for every subcommand.
type app struct {
	dotenv string
	cfg    config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "aquatallyon",
		Short: "Weekly training attendance bot",
		Long: `aquatallyon runs a Telegram bot where members mark attendance for the
week's training sessions and organizers manage the schedule.

Settings come from AQUATALLYON_* environment variables, optionally loaded
from a .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.dotenv)
			if err != nil {
				return err
			}
			a.cfg = cfg
			setupLogging(cmd.ErrOrStderr(), cfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.dotenv, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newServeCmd(a),
		newReportCmd(a),
		newMigrateCmd(a),
		newHashPasswordCmd(),
	)
	return root
}

// setupLogging installs the process-wide slog handler.
func setupLogging(w io.Writer, cfg config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}
