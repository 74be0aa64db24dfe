// package services defines the [Backend] interface for the task and progress endpoints and implements it over HTTP.
package services

import (
	"context"

	"github.com/desertthunder/studyx/internal/models"
)

// Backend is the remote collaborator behind the task store.
type Backend interface {
	// GetTask reads a single task's code and verdict.
	GetTask(ctx context.Context, taskID int) (models.TaskResult, error)

	// SaveTask persists code and an optional verdict. The response body is not used.
	SaveTask(ctx context.Context, req models.SaveRequest) error

	// GetProgress returns the ids of tasks evaluated as correct and incorrect.
	GetProgress(ctx context.Context) (models.ProgressResult, error)
}
