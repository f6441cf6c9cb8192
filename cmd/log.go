package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/model"
	"github.com/Tiliavir/tasker/internal/timecalc"
)

var logCmd = &cobra.Command{
	Use:   "log <task>",
	Short: "Show the logged intervals of a task",
	Long: `Show the logged intervals of a task. The task is given by its id,
a unique id prefix, or its row number in "tasker list".`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func runLog(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	task, err := findTask(s.tracker.Tasks(), args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	printLog(cmd.OutOrStdout(), task)
	return nil
}

// findTask resolves ref as a 1-based row number, an exact id or a unique
// id prefix.
func findTask(tasks []model.Task, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(tasks) {
		return tasks[n-1], nil
	}

	var matches []model.Task
	for _, task := range tasks {
		if task.ID == ref {
			return task, nil
		}
		if ref != "" && strings.HasPrefix(task.ID, ref) {
			matches = append(matches, task)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("no task matches %q", ref)
	case 1:
		return matches[0], nil
	default:
		return model.Task{}, fmt.Errorf("%q matches %d tasks, use a longer id prefix", ref, len(matches))
	}
}

// printLog groups the task's intervals by start date.
func printLog(w io.Writer, task model.Task) {
	fmt.Fprintln(w, task.Name)
	if len(task.Logs) == 0 {
		fmt.Fprintln(w, "No intervals logged.")
		return
	}

	var currentDay string
	for _, l := range task.Logs {
		day := l.Start().Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}

		endStr := "open"
		durStr := ""
		if !l.Open() {
			endStr = timecalc.FormatLogTime(*l.EndTime)
			durStr = fmt.Sprintf(" (%s)", formatElapsed((*l.EndTime-l.StartTime)/1000))
		}
		fmt.Fprintf(w, "  %s–%s%s\n", timecalc.FormatLogTime(l.StartTime), endStr, durStr)
	}
	fmt.Fprintf(w, "Total: %s\n", formatElapsed(task.TotalTime/1000))
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
