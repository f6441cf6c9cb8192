package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/timecalc"
	"github.com/Tiliavir/tasker/internal/tracker"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks to stdout",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json, md")
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFormat {
	case "csv", "json", "md":
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q: want csv, json or md\n", exportFormat)
		os.Exit(1)
	}

	s := mustOpenSession()
	defer s.Close()

	w := cmd.OutOrStdout()
	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(s.tracker.Tasks(), "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "error encoding JSON:", err)
			os.Exit(2)
		}
		fmt.Fprintln(w, string(data))
	case "md":
		printMarkdown(w, s.tracker, time.Now())
	default:
		printCSV(w, s.tracker.Tasks())
	}
	return nil
}

// printCSV writes one row per logged interval. Open intervals have an
// empty end and no duration.
func printCSV(w io.Writer, tasks []model.Task) {
	fmt.Fprintln(w, "task_id,task,start,end,duration_minutes")
	for _, task := range tasks {
		for _, l := range task.Logs {
			endStr := ""
			durMin := ""
			if !l.Open() {
				endStr = l.End().Format(time.RFC3339)
				durMin = fmt.Sprint((*l.EndTime - l.StartTime) / 60000)
			}
			fmt.Fprintf(w, "%s,%s,%s,%s,%s\n",
				csvEscape(task.ID),
				csvEscape(task.Name),
				csvEscape(l.Start().Format(time.RFC3339)),
				csvEscape(endStr),
				durMin,
			)
		}
	}
}

// printMarkdown writes a table of tasks with their totals and points.
func printMarkdown(w io.Writer, tr *tracker.Tracker, now time.Time) {
	fmt.Fprintln(w, "| Task | Logged | Points | Intervals |")
	fmt.Fprintln(w, "|------|--------|--------|-----------|")
	for _, task := range tr.Tasks() {
		name := strings.ReplaceAll(task.Name, "|", `\|`)
		fmt.Fprintf(w, "| %s | %s | %d | %d |\n",
			name, timecalc.FormatDuration(tr.Elapsed(task, now)), tr.Points(task, now), len(task.Logs))
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	// Escape internal double quotes by doubling them.
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
