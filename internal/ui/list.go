package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/studyx/internal/models"
)

var _ list.Item = taskItem{}

const codePreviewWidth = 48

// taskItem wraps [models.Task] to implement [list.Item].
//
// verdict comes from the progress map, which may be ahead of the task's own flag after a save.
type taskItem struct {
	task    models.Task
	verdict models.Verdict
}

func (i taskItem) FilterValue() string { return fmt.Sprint(i.task.TaskID) }
func (i taskItem) Title() string       { return fmt.Sprintf("Task %d", i.task.TaskID) }
func (i taskItem) Description() string {
	desc := styles.Verdict(i.verdict)
	if preview := codePreview(i.task.Code); preview != "" {
		desc = fmt.Sprintf("%s • %s", desc, preview)
	}
	return desc
}

// codePreview returns the first line of code, truncated.
func codePreview(code string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(code), "\n")
	if len(line) > codePreviewWidth {
		line = line[:codePreviewWidth-1] + "…"
	}
	return line
}

// taskItems merges tasks with progress verdicts. Tasks absent from progress fall back to their own flag.
func taskItems(tasks []models.Task, progress models.ProgressMap) []list.Item {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		v := progress.Verdict(t.TaskID)
		if !v.Known() {
			v = t.Verdict()
		}
		items[i] = taskItem{task: t, verdict: v}
	}
	return items
}
