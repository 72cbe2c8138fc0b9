package main

import (
	"io"
	"os"
	"time"

	"cabinbook/internal/config"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "cabinbook",
		Short:         "Cabin booking slots: working hours, availability and bookings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newSlotsCmd(opts))
	root.AddCommand(newHoursCmd(opts))
	return root
}

// load reads .env and the config file. The result is not validated.
func (o *rootOptions) load() (*config.Config, string, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, "", err
	}
	path := o.configPath
	if path == "" {
		path = config.PathFromEnv()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
