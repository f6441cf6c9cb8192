package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dryRun     bool
)

var rootCmd = &cobra.Command{
	Use:   "tasker",
	Short: "tasker – a task timer with story point estimates",
	Long: `tasker tracks time per task and maps the logged hours to story points.
Run it without a subcommand to open the interactive widget.
Data is stored in ~/.tasker/data/ unless configured otherwise.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tasker/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Work on an in-memory copy of the saved data; nothing is written back")

	rootCmd.AddCommand(uiCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(pointsCmd)
	rootCmd.AddCommand(tiersCmd)
	rootCmd.AddCommand(exportCmd)
}
