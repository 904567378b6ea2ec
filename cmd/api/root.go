package main

import (
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-api/internal/config"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	serveCmd := newServeCmd(opts)

	cmd := &cobra.Command{
		Use:   "todo-api",
		Short: "Todo REST API backed by PostgreSQL or SQLite",
		Long: `Serves the todo REST API.

Configuration comes from environment variables (a .env file in the working
directory is loaded automatically) or from the file given with --config.`,
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML or .env config file")

	cmd.AddCommand(serveCmd)
	cmd.AddCommand(newMigrateCmd(opts))
	return cmd
}

// setup loads configuration and installs the process-wide logger.
func (o *rootOptions) setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := newLogger(cfg.App, cmd.ErrOrStderr())
	slog.SetDefault(log)
	return cfg, log, nil
}

func newLogger(cfg config.AppConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, handlerOpts)
	} else {
		h = slog.NewTextHandler(w, handlerOpts)
	}
	return slog.New(h).With("env", cfg.Env)
}
