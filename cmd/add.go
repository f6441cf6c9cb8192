package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/tasker/internal/timecalc"
	"github.com/Tiliavir/tasker/internal/tracker"
)

var addCmd = &cobra.Command{
	Use:   "add <name...>",
	Short: "Add a task",
	RunE:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	s := mustOpenSession()
	defer s.Close()

	addTask(cmd.OutOrStdout(), s.tracker, strings.Join(args, " "))
	return nil
}

// addTask creates the task and reports it; blank names are ignored silently.
func addTask(w io.Writer, tr *tracker.Tracker, name string) {
	task, ok := tr.CreateTask(name)
	if !ok {
		return
	}
	fmt.Fprintf(w, "Added task %q (%s)\n", task.Name, timecalc.ShortID(task.ID))
}
