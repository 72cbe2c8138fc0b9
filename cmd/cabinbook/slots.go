package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cabinbook/internal/config"
	"cabinbook/internal/events"
	"cabinbook/internal/repository"
	"cabinbook/internal/service"
	"cabinbook/internal/slots"
	"cabinbook/internal/webhook"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var (
		date    string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Print the slot grid of a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if date == "" {
				date = time.Now().In(loc).Format(slots.DateLayout)
			}

			if offline {
				return printCandidates(cmd.OutOrStdout(), cfg, date, loc)
			}
			return printSlots(cmd.Context(), cmd.OutOrStdout(), cfg, date, loc)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&offline, "offline", false, "print the working-hours grid without asking the booking endpoint")
	return cmd
}

func printCandidates(out io.Writer, cfg *config.Config, date string, loc *time.Location) error {
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	grid, err := slots.GenerateForDay(cal, date, loc)
	if err != nil {
		return err
	}
	for _, t := range grid {
		fmt.Fprintln(out, t)
	}
	return nil
}

func printSlots(ctx context.Context, out io.Writer, cfg *config.Config, date string, loc *time.Location) error {
	cal, err := cfg.Calendar()
	if err != nil {
		return err
	}
	client, err := webhook.NewClient(webhook.Config{
		URL:     cfg.Webhook.URL,
		APIKey:  cfg.Webhook.APIKey,
		Timeout: cfg.WebhookTimeout(),
	})
	if err != nil {
		return err
	}

	logger := newLogger(config.LogConfig{Level: zerolog.LevelWarnValue, Pretty: true}, os.Stderr)
	gateway := service.NewGateway(repository.NewMemoryStore(), client, events.NewEventBus(), cal, loc, &logger)

	grid, err := gateway.FetchAvailableTimeSlots(ctx, date)
	if err != nil {
		return err
	}
	for _, s := range grid {
		state := "free"
		if !s.Available {
			state = "taken"
		}
		fmt.Fprintf(out, "%s  %s\n", s.Time, state)
	}
	return nil
}
