package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/studyx/internal/metrics"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/services"
	"github.com/desertthunder/studyx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	tasksStream    = "tasks"
	progressStream = "progress"
)

// StoreOpts configures a [Store].
type StoreOpts struct {
	Logger         *log.Logger
	Recorder       *metrics.Recorder
	MaxConcurrency int     // Concurrent GetTask calls per FetchTasks; 0 means one per task
	RateLimit      float64 // GetTask requests per second; 0 means unlimited
}

// Store caches tasks and progress fetched from a [services.Backend] and republishes them to subscribers.
//
// Every mutation and its publication happen under one mutex, so subscribers observe publications in order.
// Backend calls run outside the lock.
type Store struct {
	backend        services.Backend
	logger         *log.Logger
	recorder       *metrics.Recorder
	maxConcurrency int
	limiter        *rate.Limiter

	mu       sync.Mutex
	tasks    []models.Task
	progress models.ProgressMap
	closed   bool

	taskSubject     *Subject[[]models.Task]
	progressSubject *Subject[models.ProgressMap]
}

// NewStore creates a Store backed by backend. The task stream starts with an empty list
// and the progress stream starts without a value.
func NewStore(backend services.Backend, opts StoreOpts) *Store {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	s := &Store{
		backend:         backend,
		logger:          shared.WithLogger(opts.Logger, "component", "store"),
		recorder:        opts.Recorder,
		maxConcurrency:  opts.MaxConcurrency,
		limiter:         rate.NewLimiter(limit, 1),
		tasks:           []models.Task{},
		taskSubject:     NewBehaviorSubject([]models.Task{}, models.CloneTasks),
		progressSubject: NewSubject(models.ProgressMap.Clone),
	}

	s.taskSubject.OnSubscribersChanged(func(n int) { s.recorder.SetSubscribers(tasksStream, n) })
	s.progressSubject.OnSubscribersChanged(func(n int) { s.recorder.SetSubscribers(progressStream, n) })
	return s
}

// publishTasks and publishProgress must be called with s.mu held.
func (s *Store) publishTasks() {
	s.taskSubject.Publish(models.CloneTasks(s.tasks))
	s.recorder.IncPublish(tasksStream)
}

func (s *Store) publishProgress() {
	s.progressSubject.Publish(s.progress.Clone())
	s.recorder.IncPublish(progressStream)
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// SaveTask persists code and an optional verdict, then applies them locally.
//
// Nothing is applied when the backend rejects the save. After a successful save a non-nil correct is merged
// into the progress map, and the task with taskID (if the list holds one) takes the new code and verdict.
// Ids missing from the list are not inserted.
func (s *Store) SaveTask(ctx context.Context, taskID int, code string, correct *bool) error {
	if s.isClosed() {
		return shared.ErrStoreClosed
	}

	req := models.SaveRequest{TaskID: taskID, Code: code, Correct: models.CloneBool(correct)}
	if err := s.backend.SaveTask(ctx, req); err != nil {
		s.logger.Error("save failed", "task_id", taskID, "error", err)
		return fmt.Errorf("%w: task %d: %w", shared.ErrTaskSave, taskID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if correct != nil {
		s.progress = s.progress.Merge(models.ProgressMap{taskID: *correct})
		s.publishProgress()
	}

	if i := models.IndexOf(s.tasks, taskID); i >= 0 {
		s.tasks[i].Code = code
		s.tasks[i].Correct = models.CloneBool(correct)
		s.publishTasks()
	} else {
		s.logger.Debug("saved task not in list", "task_id", taskID)
	}
	return nil
}

// SaveTaskAsync runs [Store.SaveTask] on its own goroutine.
//
// The returned channel yields the result once and is then closed. Failures are also logged.
func (s *Store) SaveTaskAsync(ctx context.Context, taskID int, code string, correct *bool) <-chan error {
	done := make(chan error, 1)
	correct = models.CloneBool(correct)
	go func() {
		defer close(done)
		done <- s.SaveTask(ctx, taskID, code, correct)
	}()
	return done
}

// GetTask reads a single task from the backend without touching the store.
func (s *Store) GetTask(ctx context.Context, taskID int) (models.Task, error) {
	res, err := s.backend.GetTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	return res.Task(taskID), nil
}

// LoadProgress replaces the progress map with the backend's and publishes it.
//
// Ids in the incorrect list win over the same ids in the correct list.
func (s *Store) LoadProgress(ctx context.Context) error {
	if s.isClosed() {
		return shared.ErrStoreClosed
	}

	res, err := s.backend.GetProgress(ctx)
	if err != nil {
		s.logger.Error("progress load failed", "error", err)
		return fmt.Errorf("%w: %w", shared.ErrProgressLoad, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = models.NewProgressMap(res)
	s.publishProgress()

	s.logger.Debug("loaded progress", "correct", len(res.Correct), "incorrect", len(res.Incorrect))
	return nil
}

// AddTask inserts task at the end of the list, replacing any entry with the same id, and publishes the list.
func (s *Store) AddTask(task models.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = slices.DeleteFunc(s.tasks, func(t models.Task) bool { return t.TaskID == task.TaskID })
	s.tasks = append(s.tasks, task.Clone())
	s.publishTasks()
}

// IsTaskCorrect returns a live view of the verdict for taskID.
//
// A value is emitted for every progress publication, starting with the current map if one has been published.
// The channel is closed when ctx is done or the store is closed.
func (s *Store) IsTaskCorrect(ctx context.Context, taskID int) <-chan models.Verdict {
	return follow(ctx, s.progressSubject, func(m models.ProgressMap) (models.Verdict, bool) {
		return m.Verdict(taskID), true
	})
}

// FetchTask returns a live view of the task with taskID.
//
// A value is emitted for every list publication that contains the id; lists without it emit nothing.
// The channel is closed when ctx is done or the store is closed.
func (s *Store) FetchTask(ctx context.Context, taskID int) <-chan models.Task {
	return follow(ctx, s.taskSubject, func(tasks []models.Task) (models.Task, bool) {
		i := models.IndexOf(tasks, taskID)
		if i < 0 {
			return models.Task{}, false
		}
		return tasks[i], true
	})
}

// follow maps a subject's publications through fn until ctx is done or the subject closes.
func follow[T, U any](ctx context.Context, subject *Subject[T], fn func(T) (U, bool)) <-chan U {
	in, unsubscribe := subject.Subscribe()
	out := make(chan U, 1)

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-in:
				if !ok {
					return
				}
				u, emit := fn(v)
				if !emit {
					continue
				}
				select {
				case out <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// SubscribeTasks returns the raw task list stream and its unsubscribe func.
func (s *Store) SubscribeTasks() (<-chan []models.Task, func()) {
	return s.taskSubject.Subscribe()
}

// SubscribeProgress returns the raw progress stream and its unsubscribe func.
func (s *Store) SubscribeProgress() (<-chan models.ProgressMap, func()) {
	return s.progressSubject.Subscribe()
}

// Tasks returns a copy of the current list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneTasks(s.tasks)
}

// Progress returns a copy of the current progress map.
func (s *Store) Progress() models.ProgressMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Clone()
}

// Task returns the listed task with taskID.
func (s *Store) Task(taskID int) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := models.IndexOf(s.tasks, taskID)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Correctness returns the current verdict for taskID.
func (s *Store) Correctness(taskID int) models.Verdict {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Verdict(taskID)
}

// Close ends every subscription. Later operations that would publish return [shared.ErrStoreClosed].
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.taskSubject.Close()
	s.progressSubject.Close()
}
