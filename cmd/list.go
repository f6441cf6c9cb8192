package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/timecalc"
	"github.com/Tiliavir/tasker/internal/tracker"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with logged time and story points",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	printList(cmd.OutOrStdout(), s.tracker, time.Now())
	return nil
}

// printList prints one row per task. Intervals left open by an earlier
// session are flagged; their time is not counted until they are closed.
func printList(w io.Writer, tr *tracker.Tracker, now time.Time) {
	tasks := tr.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found.")
		return
	}

	for i, task := range tasks {
		elapsed := tr.Elapsed(task, now)
		fmt.Fprintf(w, "%2d  %s  %-30s %8s  %2d pts  %d log(s)",
			i+1,
			timecalc.ShortID(task.ID),
			task.Name,
			timecalc.FormatDuration(elapsed),
			tr.Points(task, now),
			len(task.Logs),
		)
		if open, ok := task.OpenInterval(); ok && task.ID != tr.ActiveID() {
			fmt.Fprintf(w, "  (unclosed since %s %s)",
				open.Start().Format("2006-01-02"), timecalc.FormatLogTime(open.StartTime))
		}
		fmt.Fprintln(w)
	}
}
