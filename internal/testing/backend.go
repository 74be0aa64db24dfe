package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/studyx/internal/models"
)

// FakeBackend is an in-memory implementation of services.Backend for testing.
//
// Gates let a test decide the order in which GetTask calls complete.
type FakeBackend struct {
	mu       sync.Mutex
	tasks    map[int]models.TaskResult
	progress models.ProgressResult
	gates    map[int]chan struct{}
	saves    []models.SaveRequest
	gets     []int
	inFlight int
	maxSeen  int

	// Error injection for testing
	GetTaskErr     map[int]error
	SaveTaskErr    error
	GetProgressErr error
}

// NewFakeBackend creates an empty FakeBackend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		tasks:      make(map[int]models.TaskResult),
		gates:      make(map[int]chan struct{}),
		GetTaskErr: make(map[int]error),
		progress:   models.ProgressResult{Correct: []int{}, Incorrect: []int{}},
	}
}

// SetTask stores the result returned for id.
func (f *FakeBackend) SetTask(id int, code string, correct *bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[id] = models.TaskResult{Code: code, Correct: models.CloneBool(correct)}
}

// SetProgress stores the result returned by GetProgress.
func (f *FakeBackend) SetProgress(correct, incorrect []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = models.ProgressResult{Correct: correct, Incorrect: incorrect}
}

// Gate makes GetTask(id) block until the returned func is called.
func (f *FakeBackend) Gate(id int) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[id] = ch
	f.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// GetTask implements services.Backend.
func (f *FakeBackend) GetTask(ctx context.Context, taskID int) (models.TaskResult, error) {
	f.mu.Lock()
	f.gets = append(f.gets, taskID)
	f.inFlight++
	f.maxSeen = max(f.maxSeen, f.inFlight)
	gate := f.gates[taskID]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return models.TaskResult{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.GetTaskErr[taskID]; err != nil {
		return models.TaskResult{}, err
	}
	r, ok := f.tasks[taskID]
	if !ok {
		return models.TaskResult{}, fmt.Errorf("task %d: not found", taskID)
	}
	return models.TaskResult{Code: r.Code, Correct: models.CloneBool(r.Correct)}, nil
}

// SaveTask implements services.Backend and records the request.
func (f *FakeBackend) SaveTask(ctx context.Context, req models.SaveRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SaveTaskErr != nil {
		return f.SaveTaskErr
	}

	f.saves = append(f.saves, req)
	prev := f.tasks[req.TaskID]
	next := models.TaskResult{Code: req.Code, Correct: prev.Correct}
	if req.Correct != nil {
		next.Correct = models.CloneBool(req.Correct)
	}
	f.tasks[req.TaskID] = next
	return nil
}

// GetProgress implements services.Backend.
func (f *FakeBackend) GetProgress(ctx context.Context) (models.ProgressResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.GetProgressErr != nil {
		return models.ProgressResult{}, f.GetProgressErr
	}
	return models.ProgressResult{
		Correct:   append([]int{}, f.progress.Correct...),
		Incorrect: append([]int{}, f.progress.Incorrect...),
	}, nil
}

// Saves returns the accepted save requests in order.
func (f *FakeBackend) Saves() []models.SaveRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.SaveRequest(nil), f.saves...)
}

// Gets returns the ids passed to GetTask in call order.
func (f *FakeBackend) Gets() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.gets...)
}

// MaxInFlight returns the highest number of concurrent GetTask calls observed.
func (f *FakeBackend) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxSeen
}
