package report

import (
	"fmt"
	"time"

	"github.com/maxkimambo/cgaprov/internal/dag"
	caterrors "github.com/maxkimambo/cgaprov/internal/errors"
)

// Summary renders the outcome of an execution as a box
func Summary(result *dag.ExecutionResult) *Box {
	tone, title := ToneSuccess, "Provisioning complete"
	if !result.Success {
		tone, title = ToneError, "Provisioning failed"
	}

	box := NewBox(tone, title).
		AddKeyValue("Run", result.RunID).
		AddKeyValue("Created", fmt.Sprint(result.Count(dag.StatusCompleted))).
		AddKeyValue("Already present", fmt.Sprint(result.Count(dag.StatusSkipped)))

	if failed := result.Count(dag.StatusFailed); failed > 0 {
		box.AddKeyValue("Failed", fmt.Sprint(failed))
	}
	if cancelled := result.Count(dag.StatusCancelled); cancelled > 0 {
		box.AddKeyValue("Not run", fmt.Sprint(cancelled))
	}
	box.AddKeyValue("Duration", result.ExecutionTime.Round(time.Millisecond).String())

	for _, nr := range result.Sorted() {
		if nr.Status == dag.StatusFailed && nr.Error != nil {
			box.AddBullet(fmt.Sprintf("%s: %s", nr.Task, caterrors.DisplayErrorSummary(nr.Error)))
		}
	}
	return box
}

// TaskTable lists every visited task with its status and duration. Tasks
// that were never visited are left out.
func TaskTable(result *dag.ExecutionResult) *Table {
	table := NewTable("Task", "Status", "Duration")
	for _, nr := range result.Sorted() {
		if nr.Status == dag.StatusPending {
			continue
		}
		duration := "-"
		if nr.Status == dag.StatusCompleted || nr.Status == dag.StatusFailed {
			duration = nr.Duration.Round(time.Millisecond).String()
		}
		table.AddRow(nr.Task, nr.Status.String(), duration)
	}
	return table
}
