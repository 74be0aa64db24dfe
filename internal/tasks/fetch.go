package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
)

// FetchOption configures a single [Store.FetchTasks] call.
type FetchOption func(*fetchOpts)

type fetchOpts struct {
	updates chan<- FetchUpdate
}

// WithUpdates reports per-task progress on ch. Sends never block; updates are dropped when ch is full.
func WithUpdates(ch chan<- FetchUpdate) FetchOption {
	return func(o *fetchOpts) { o.updates = ch }
}

// FetchTasks refreshes every task in list from the backend and replaces the store's list with the result.
//
// Requests run on a worker pool bounded by the store's concurrency and rate limits.
// The list is replaced and published once, after every request has finished,
// with tasks in input order. Duplicate ids are fetched once and kept at their first position.
// When any request fails nothing is published and the joined errors are returned wrapped in [shared.ErrTaskFetch].
func (s *Store) FetchTasks(ctx context.Context, list []models.Task, opts ...FetchOption) ([]models.Task, error) {
	var o fetchOpts
	for _, opt := range opts {
		opt(&o)
	}

	if s.isClosed() {
		return nil, shared.ErrStoreClosed
	}

	out := dedupe(list)
	total := len(out)
	s.recorder.ObserveFetchBatch(total)
	sendUpdate(o.updates, fetchStartedUpdate(total))

	errs := make([]error, total)
	jobs := make(chan int, total)
	for i := range out {
		jobs <- i
	}
	close(jobs)

	workers := s.maxConcurrency
	if workers <= 0 || workers > total {
		workers = total
	}

	var completed atomic.Int64
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = s.fetchOne(ctx, &out[i])

				step := int(completed.Add(1))
				if errs[i] != nil {
					sendUpdate(o.updates, fetchFailedUpdate(step, total, out[i].TaskID, errs[i]))
				} else {
					sendUpdate(o.updates, fetchedTaskUpdate(step, total, out[i]))
				}
			}
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("fetch failed", "tasks", total, "error", err)
		return nil, fmt.Errorf("%w: %w", shared.ErrTaskFetch, err)
	}

	s.mu.Lock()
	s.tasks = out
	s.publishTasks()
	s.mu.Unlock()

	s.logger.Debug("fetched tasks", "count", total)
	sendUpdate(o.updates, fetchDoneUpdate(total))
	return models.CloneTasks(out), nil
}

// fetchOne overwrites t's code and verdict with the backend's copy.
func (s *Store) fetchOne(ctx context.Context, t *models.Task) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("task %d: %w", t.TaskID, err)
	}

	res, err := s.backend.GetTask(ctx, t.TaskID)
	if err != nil {
		return fmt.Errorf("task %d: %w", t.TaskID, err)
	}

	t.Code = res.Code
	t.Correct = models.CloneBool(res.Correct)
	return nil
}

// dedupe copies list keeping the first occurrence of every id.
func dedupe(list []models.Task) []models.Task {
	seen := make(map[int]struct{}, len(list))
	out := make([]models.Task, 0, len(list))
	for _, t := range list {
		if _, ok := seen[t.TaskID]; ok {
			continue
		}
		seen[t.TaskID] = struct{}{}
		out = append(out, t.Clone())
	}
	return out
}
