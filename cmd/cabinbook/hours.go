package main

import (
	"fmt"
	"io"

	"cabinbook/internal/schedule"

	"github.com/spf13/cobra"
)

func newHoursCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hours",
		Short: "Print the effective working hours",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load()
			if err != nil {
				return err
			}
			cal, err := cfg.Calendar()
			if err != nil {
				return err
			}
			printHours(cmd.OutOrStdout(), cal)
			return nil
		},
	}
}

func printHours(out io.Writer, cal schedule.Calendar) {
	for _, d := range schedule.Weekdays {
		h := cal.For(d)
		fmt.Fprintf(out, "%-9s %s-%s\n", d, h.Start, h.End)
	}
}
