package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/points"
	"github.com/Tiliavir/tasker/internal/timecalc"
)

var tiersExportFile string

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Show or edit the story point tiers",
	Args:  cobra.NoArgs,
	RunE:  runTiersList,
}

var tiersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Append a tier continuing from the last one",
	Args:  cobra.NoArgs,
	RunE:  runTiersAdd,
}

var tiersSetCmd = &cobra.Command{
	Use:   "set <n> <points|min|max> <value>",
	Short: "Change one field of tier n",
	Long: `Change one field of tier n (1-based, as shown by "tasker tiers").
A value that is not a number is stored as 0.`,
	Args: cobra.ExactArgs(3),
	RunE: runTiersSet,
}

var tiersRemoveCmd = &cobra.Command{
	Use:   "remove <n>",
	Short: "Remove tier n; the last remaining tier cannot be removed",
	Args:  cobra.ExactArgs(1),
	RunE:  runTiersRemove,
}

var tiersExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the tiers as YAML to stdout or --file",
	Args:  cobra.NoArgs,
	RunE:  runTiersExport,
}

var tiersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the tiers with a YAML file written by export",
	Args:  cobra.ExactArgs(1),
	RunE:  runTiersImport,
}

var tiersResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default tiers",
	Args:  cobra.NoArgs,
	RunE:  runTiersReset,
}

func init() {
	tiersExportCmd.Flags().StringVar(&tiersExportFile, "file", "", "Write to this file instead of stdout")

	tiersCmd.AddCommand(tiersAddCmd)
	tiersCmd.AddCommand(tiersSetCmd)
	tiersCmd.AddCommand(tiersRemoveCmd)
	tiersCmd.AddCommand(tiersExportCmd)
	tiersCmd.AddCommand(tiersImportCmd)
	tiersCmd.AddCommand(tiersResetCmd)
}

func runTiersList(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

func runTiersAdd(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	s.tracker.AddTier()
	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

func runTiersSet(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	index, err := tierIndex(args[0], len(s.tracker.Tiers()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	field, err := tierField(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := s.tracker.UpdateTier(index, field, args[2]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

func runTiersRemove(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	index, err := tierIndex(args[0], len(s.tracker.Tiers()))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !s.tracker.RemoveTier(index) {
		fmt.Fprintln(os.Stderr, "At least one tier is required.")
		os.Exit(1)
	}
	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

func runTiersExport(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	data, err := points.ExportYAML(s.tracker.Tiers())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error encoding YAML:", err)
		os.Exit(2)
	}
	if tiersExportFile == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(tiersExportFile, data, 0o600); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tiers to %s\n", len(s.tracker.Tiers()), tiersExportFile)
	return nil
}

func runTiersImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	tiers, err := points.ImportYAML(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		os.Exit(1)
	}

	s := mustOpenSession()
	defer s.Close()

	if err := s.tracker.ReplaceTiers(tiers); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

func runTiersReset(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	if err := s.tracker.ReplaceTiers(points.DefaultTiers()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	printTiers(cmd.OutOrStdout(), s.tracker.Tiers())
	return nil
}

// printTiers lists tiers in stored order, which is also the order the
// numbers passed to set and remove refer to.
func printTiers(w io.Writer, tiers []model.Tier) {
	fmt.Fprintln(w, " #  points  min h   max h   range")
	for i, t := range tiers {
		fmt.Fprintf(w, "%2d  %6d  %-6s  %-6s  %s\n",
			i+1, t.Points, timecalc.FormatHours(t.MinHours), timecalc.FormatHours(t.MaxHours), points.Label(t))
	}
}

// tierIndex converts a 1-based tier number to an index.
func tierIndex(raw string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("invalid tier number %q: want 1..%d", raw, n)
	}
	return i - 1, nil
}

// tierField maps the short CLI names onto the stored field names.
func tierField(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "points", "p":
		return points.FieldPoints, nil
	case "min", "minhours", "min_hours":
		return points.FieldMinHours, nil
	case "max", "maxhours", "max_hours":
		return points.FieldMaxHours, nil
	default:
		return "", fmt.Errorf("unknown tier field %q: want points, min or max", raw)
	}
}
