package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vstoxxcli/internal/settlement"
)

func newSettlementsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settlements [date]",
		Short: "Show the settlement dates for a day or a range",
		Long: `With a date argument, print the two settlement dates that bracket it and
their distance in days. With --from and --to, list every settlement date in
the range. Dates use the YYYY-MM-DD format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("from")
			to, _ := cmd.Flags().GetString("to")

			switch {
			case len(args) == 1 && from == "" && to == "":
				return resolveDate(cmd, args[0])
			case len(args) == 0 && from != "" && to != "":
				return listSettlements(cmd, from, to)
			default:
				return fmt.Errorf("pass either a date or both --from and --to")
			}
		},
	}

	cmd.Flags().String("from", "", "first day of the range")
	cmd.Flags().String("to", "", "last day of the range")
	return cmd
}

func resolveDate(cmd *cobra.Command, value string) error {
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", value, err)
	}
	first, second, err := settlement.Resolve(day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Date:         %s\n", day.Format(time.DateOnly))
	fmt.Fprintf(out, "Settlement 1: %s (%d days)\n", first.Format(time.DateOnly), settlement.DaysBetween(day, first))
	fmt.Fprintf(out, "Settlement 2: %s (%d days)\n", second.Format(time.DateOnly), settlement.DaysBetween(day, second))
	return nil
}

func listSettlements(cmd *cobra.Command, fromValue, toValue string) error {
	from, err := time.Parse(time.DateOnly, fromValue)
	if err != nil {
		return fmt.Errorf("invalid --from %q: %w", fromValue, err)
	}
	to, err := time.Parse(time.DateOnly, toValue)
	if err != nil {
		return fmt.Errorf("invalid --to %q: %w", toValue, err)
	}

	dates, err := settlement.Between(from, to)
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Fprintln(cmd.OutOrStdout(), d.Format(time.DateOnly))
	}
	return nil
}
