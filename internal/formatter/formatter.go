// package formatter renders tasks and progress as text, CSV, Markdown or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	JSON     Format = "json"
)

// ParseFormat accepts text, txt, csv, markdown, md and json. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// TasksToCSV renders tasks with columns: TaskID, Verdict, Code
func TasksToCSV(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"TaskID", "Verdict", "Code"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tasks {
		record := []string{strconv.Itoa(t.TaskID), t.Verdict().String(), t.Code}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TasksToMarkdown renders one section per task with its code in a fenced block.
func TasksToMarkdown(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Tasks\n\n")
	fmt.Fprintf(&buf, "**Tasks**: %d\n\n", len(tasks))

	for _, t := range tasks {
		fmt.Fprintf(&buf, "## Task %d\n\n", t.TaskID)
		fmt.Fprintf(&buf, "**Verdict**: %s\n\n", t.Verdict())
		if t.Code != "" {
			buf.WriteString("```\n")
			buf.WriteString(strings.TrimRight(t.Code, "\n"))
			buf.WriteString("\n```\n\n")
		}
	}
	return buf.Bytes(), nil
}

// TasksToText renders one line per task.
func TasksToText(tasks []models.Task) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Tasks: %d\n\n", len(tasks))
	for i, t := range tasks {
		fmt.Fprintf(&buf, "%d. Task %d [%s]", i+1, t.TaskID, t.Verdict())
		if line, _, _ := strings.Cut(strings.TrimSpace(t.Code), "\n"); line != "" {
			fmt.Fprintf(&buf, " %s", line)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ProgressToCSV renders one row per evaluated task with columns: TaskID, Verdict
func ProgressToCSV(progress models.ProgressMap) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"TaskID", "Verdict"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	r := progress.Result()
	rows := make([][]string, 0, len(progress))
	for _, id := range r.Correct {
		rows = append(rows, []string{strconv.Itoa(id), models.Correct.String()})
	}
	for _, id := range r.Incorrect {
		rows = append(rows, []string{strconv.Itoa(id), models.Incorrect.String()})
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV record: %w", err)
	}
	return buf.Bytes(), nil
}

// ProgressToMarkdown renders correct and incorrect ids as two lists.
func ProgressToMarkdown(progress models.ProgressMap) ([]byte, error) {
	var buf bytes.Buffer
	r := progress.Result()

	buf.WriteString("# Progress\n\n")
	fmt.Fprintf(&buf, "**Correct**: %d\n", len(r.Correct))
	fmt.Fprintf(&buf, "**Incorrect**: %d\n\n", len(r.Incorrect))

	writeIDList(&buf, "## Correct", r.Correct)
	writeIDList(&buf, "## Incorrect", r.Incorrect)
	return buf.Bytes(), nil
}

func writeIDList(buf *bytes.Buffer, heading string, ids []int) {
	buf.WriteString(heading + "\n\n")
	if len(ids) == 0 {
		buf.WriteString("_none_\n\n")
		return
	}
	for _, id := range ids {
		fmt.Fprintf(buf, "- Task %d\n", id)
	}
	buf.WriteString("\n")
}

// ProgressToText renders a summary line followed by the id lists.
func ProgressToText(progress models.ProgressMap) ([]byte, error) {
	var buf bytes.Buffer
	r := progress.Result()

	fmt.Fprintf(&buf, "Correct: %d\nIncorrect: %d\n", len(r.Correct), len(r.Incorrect))
	if len(r.Correct) > 0 {
		fmt.Fprintf(&buf, "\ncorrect:   %s", joinIDs(r.Correct))
	}
	if len(r.Incorrect) > 0 {
		fmt.Fprintf(&buf, "\nincorrect: %s", joinIDs(r.Incorrect))
	}
	if len(progress) > 0 {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// RenderTasks renders tasks in format.
func RenderTasks(tasks []models.Task, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return TasksToCSV(tasks)
	case Markdown:
		return TasksToMarkdown(tasks)
	case JSON:
		return shared.MarshalJSON(tasks, true)
	case Text, "":
		return TasksToText(tasks)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// RenderProgress renders progress in format. JSON uses the endpoint's {correct, incorrect} shape.
func RenderProgress(progress models.ProgressMap, format Format) ([]byte, error) {
	switch format {
	case CSV:
		return ProgressToCSV(progress)
	case Markdown:
		return ProgressToMarkdown(progress)
	case JSON:
		return shared.MarshalJSON(progress.Result(), true)
	case Text, "":
		return ProgressToText(progress)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// Write sends data to path, or to w when path is empty.
func Write(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
