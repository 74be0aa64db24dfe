package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/repositories"
	"github.com/desertthunder/studyx/internal/shared"
)

// Repository is the persistence the task routes read and write.
type Repository interface {
	Get(ctx context.Context, taskID int) (models.TaskResult, error)
	Save(ctx context.Context, req models.SaveRequest) error
	Progress(ctx context.Context) (models.ProgressResult, error)
	History(ctx context.Context, taskID int) ([]repositories.SaveRecord, error)
}

var _ Repository = (*repositories.TaskRepository)(nil)

// TaskHandlerOpts configures the paths a [TaskHandler] serves.
type TaskHandlerOpts struct {
	TaskPath     string
	ProgressPath string
	Logger       *log.Logger
}

// TaskHandler serves the task, progress and history routes.
type TaskHandler struct {
	repo         Repository
	taskPath     string
	progressPath string
	logger       *log.Logger
	mux          *http.ServeMux
}

// NewTaskHandler creates a [TaskHandler] over repo.
func NewTaskHandler(repo Repository, opts TaskHandlerOpts) *TaskHandler {
	if opts.TaskPath == "" {
		opts.TaskPath = "/task"
	}
	if opts.ProgressPath == "" {
		opts.ProgressPath = "/progress"
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	h := &TaskHandler{
		repo:         repo,
		taskPath:     opts.TaskPath,
		progressPath: opts.ProgressPath,
		logger:       opts.Logger,
		mux:          http.NewServeMux(),
	}

	h.mux.HandleFunc("GET "+h.taskPath, h.getTask)
	h.mux.HandleFunc("POST "+h.taskPath, h.saveTask)
	h.mux.HandleFunc("GET "+h.historyPath(), h.history)
	h.mux.HandleFunc("GET "+h.progressPath, h.progress)
	return h
}

func (h *TaskHandler) historyPath() string {
	return strings.TrimSuffix(h.taskPath, "/") + "/{taskId}/history"
}

// Routes returns the HTTP routes this handler serves.
func (h *TaskHandler) Routes() []string {
	return []string{
		"GET " + h.taskPath,
		"POST " + h.taskPath,
		"GET " + h.historyPath(),
		"GET " + h.progressPath,
	}
}

// ServeHTTP dispatches to the route handlers.
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// getTask answers {"correct": null, "code": ""} for tasks that were never saved.
func (h *TaskHandler) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := queryTaskID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.repo.Get(r.Context(), id)
	switch {
	case errors.Is(err, shared.ErrTaskNotFound):
		respondJSON(w, http.StatusOK, models.TaskResult{})
	case err != nil:
		h.logger.Error("get task failed", "task_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load task")
	default:
		respondJSON(w, http.StatusOK, result)
	}
}

// saveTask stores the body and answers with the task's resulting state.
func (h *TaskHandler) saveTask(w http.ResponseWriter, r *http.Request) {
	var req models.SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Save(r.Context(), req); err != nil {
		h.logger.Error("save task failed", "task_id", req.TaskID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save task")
		return
	}

	result, err := h.repo.Get(r.Context(), req.TaskID)
	if err != nil {
		h.logger.Error("reload task failed", "task_id", req.TaskID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load task")
		return
	}

	h.logger.Debug("saved task", "task_id", req.TaskID, "verdict", models.VerdictOf(req.Correct))
	respondJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) progress(w http.ResponseWriter, r *http.Request) {
	result, err := h.repo.Progress(r.Context())
	if err != nil {
		h.logger.Error("get progress failed", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (h *TaskHandler) history(w http.ResponseWriter, r *http.Request) {
	id, err := pathTaskID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.repo.History(r.Context(), id)
	if err != nil {
		h.logger.Error("get history failed", "task_id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	respondJSON(w, http.StatusOK, records)
}
