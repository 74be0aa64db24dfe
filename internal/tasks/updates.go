package tasks

import (
	"fmt"

	"github.com/desertthunder/studyx/internal/models"
)

// FetchUpdate represents a progress event during a batch fetch.
//
// Used to send real-time updates to the CLI or UI layer for display.
type FetchUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Requests completed so far
	Total   int    // Requests in the batch
	Message string // Human-readable message for display
	Data    any    // The fetched task or the error, when there is one
}

// Operation phase enumeration
type Phase int

const (
	FetchStarted Phase = iota
	FetchedTask
	FetchFailed
	FetchDone
)

func (p Phase) String() string {
	switch p {
	case FetchStarted:
		return "fetch_started"
	case FetchedTask:
		return "fetched_task"
	case FetchFailed:
		return "fetch_failed"
	case FetchDone:
		return "fetch_done"
	default:
		return ""
	}
}

// sendUpdate sends an update through the channel without blocking.
func sendUpdate(updates chan<- FetchUpdate, u FetchUpdate) {
	if updates == nil {
		return
	}
	select {
	case updates <- u:
	default:
	}
}

func fetchStartedUpdate(total int) FetchUpdate {
	return FetchUpdate{
		Phase:   FetchStarted,
		Total:   total,
		Message: fmt.Sprintf("Fetching %d tasks...", total),
	}
}

func fetchedTaskUpdate(step, total int, t models.Task) FetchUpdate {
	return FetchUpdate{
		Phase:   FetchedTask,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] task %d (%s)", step, total, t.TaskID, t.Verdict()),
		Data:    t.Clone(),
	}
}

func fetchFailedUpdate(step, total, id int, err error) FetchUpdate {
	return FetchUpdate{
		Phase:   FetchFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ task %d: %v", step, total, id, err),
		Data:    err,
	}
}

func fetchDoneUpdate(total int) FetchUpdate {
	return FetchUpdate{
		Phase:   FetchDone,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Fetched %d tasks", total),
	}
}
