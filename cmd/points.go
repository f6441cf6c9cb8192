package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/points"
	"github.com/Tiliavir/tasker/internal/timecalc"
)

var pointsCmd = &cobra.Command{
	Use:   "points <duration>",
	Short: "Classify a duration such as 3h or 90m with the configured tiers",
	Args:  cobra.ExactArgs(1),
	RunE:  runPoints,
}

func runPoints(cmd *cobra.Command, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil || d < 0 {
		fmt.Fprintf(os.Stderr, "invalid duration %q: want a non-negative Go duration like 3h or 90m\n", args[0])
		os.Exit(1)
	}

	s := mustOpenSession()
	defer s.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%s → %d points\n", timecalc.FormatDuration(d), points.Classify(d, s.tracker.Tiers()))
	return nil
}
