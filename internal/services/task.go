package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/metrics"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
)

const (
	defaultTaskPath     = "/task"
	defaultProgressPath = "/progress"
)

var _ Backend = (*TaskService)(nil)

// TaskService implements [Backend] against the REST task and progress resources.
type TaskService struct {
	api          *APIService
	taskPath     string
	progressPath string
	recorder     *metrics.Recorder
	logger       *log.Logger
}

// TaskServiceOpts configures a [TaskService]. Zero values fall back to defaults.
type TaskServiceOpts struct {
	TaskPath     string
	ProgressPath string
	Recorder     *metrics.Recorder
	Logger       *log.Logger
}

// NewTaskService creates a [TaskService] on top of api.
func NewTaskService(api *APIService, opts TaskServiceOpts) *TaskService {
	if opts.TaskPath == "" {
		opts.TaskPath = defaultTaskPath
	}
	if opts.ProgressPath == "" {
		opts.ProgressPath = defaultProgressPath
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &TaskService{
		api:          api,
		taskPath:     opts.TaskPath,
		progressPath: opts.ProgressPath,
		recorder:     opts.Recorder,
		logger:       shared.WithLogger(opts.Logger, "component", "backend"),
	}
}

// GetTask calls GET {task}?taskId={id}.
func (s *TaskService) GetTask(ctx context.Context, taskID int) (models.TaskResult, error) {
	var result models.TaskResult

	query := url.Values{}
	query.Set("taskId", strconv.Itoa(taskID))

	start := time.Now()
	resp, err := s.api.Get(ctx, s.taskPath, query)
	err = s.finish(resp, err, &result)
	s.recorder.ObserveBackendCall("task", http.MethodGet, time.Since(start), err)
	if err != nil {
		return models.TaskResult{}, fmt.Errorf("get task %d: %w", taskID, err)
	}

	s.logger.Debug("fetched task", "task_id", taskID, "request_id", resp.RequestID)
	return result, nil
}

// SaveTask calls POST {task} with the request body.
func (s *TaskService) SaveTask(ctx context.Context, req models.SaveRequest) error {
	start := time.Now()
	resp, err := s.api.PostJSON(ctx, s.taskPath, req)
	err = s.finish(resp, err, nil)
	s.recorder.ObserveBackendCall("task", http.MethodPost, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("save task %d: %w", req.TaskID, err)
	}

	s.logger.Debug("saved task", "task_id", req.TaskID, "request_id", resp.RequestID)
	return nil
}

// GetProgress calls GET {progress}. Missing lists decode as empty.
func (s *TaskService) GetProgress(ctx context.Context) (models.ProgressResult, error) {
	var result models.ProgressResult

	start := time.Now()
	resp, err := s.api.Get(ctx, s.progressPath, nil)
	err = s.finish(resp, err, &result)
	s.recorder.ObserveBackendCall("progress", http.MethodGet, time.Since(start), err)
	if err != nil {
		return models.ProgressResult{}, fmt.Errorf("get progress: %w", err)
	}

	if result.Correct == nil {
		result.Correct = []int{}
	}
	if result.Incorrect == nil {
		result.Incorrect = []int{}
	}
	return result, nil
}

// finish turns transport errors and non-2xx statuses into [shared.ErrAPIRequest] errors and decodes into v when given.
func (s *TaskService) finish(resp *APIResponse, err error, v any) error {
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	if err := resp.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return nil
}
