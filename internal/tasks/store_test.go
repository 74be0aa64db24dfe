package tasks

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/desertthunder/studyx/internal/metrics"
	"github.com/desertthunder/studyx/internal/models"
	"github.com/desertthunder/studyx/internal/shared"
	tu "github.com/desertthunder/studyx/internal/testing"
	prom "github.com/prometheus/client_golang/prometheus"
)

func newTestStore(t *testing.T, opts StoreOpts) (*Store, *tu.FakeBackend) {
	t.Helper()
	fake := tu.NewFakeBackend()
	s := NewStore(fake, opts)
	t.Cleanup(s.Close)
	return s, fake
}

func taskIDs(tasks []models.Task) []int {
	ids := make([]int, len(tasks))
	for i, t := range tasks {
		ids[i] = t.TaskID
	}
	return ids
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func publishCount(t *testing.T, reg *prom.Registry, stream string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	for _, f := range families {
		if f.GetName() != "studyx_store_publishes_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "stream" && l.GetValue() == stream {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestStoreSaveTask(t *testing.T) {
	ctx := context.Background()

	t.Run("Defined Verdict Reaches IsTaskCorrect", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetProgress([]int{1}, []int{2})
		if err := s.LoadProgress(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		view := s.IsTaskCorrect(ctx, 3)
		if got := recv(t, view); got != models.Undetermined {
			t.Fatalf("expected undetermined before save, got %v", got)
		}

		if err := s.SaveTask(ctx, 3, "print(3)", models.Bool(false)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := recv(t, view); got != models.Incorrect {
			t.Errorf("expected incorrect, got %v", got)
		}
		if s.Correctness(1) != models.Correct || s.Correctness(2) != models.Incorrect {
			t.Errorf("other entries changed: %v", s.Progress())
		}
	})

	t.Run("Nil Verdict Leaves Progress Untouched", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetProgress([]int{5}, nil)
		if err := s.LoadProgress(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		progress, unsubscribe := s.SubscribeProgress()
		defer unsubscribe()
		recv(t, progress)

		if err := s.SaveTask(ctx, 5, "draft", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		expectSilent(t, progress)
		if s.Correctness(5) != models.Correct {
			t.Errorf("expected verdict to survive, got %v", s.Correctness(5))
		}
		if saves := fake.Saves(); len(saves) != 1 || saves[0].Correct != nil {
			t.Errorf("unexpected saves %+v", saves)
		}
	})

	t.Run("Updates Listed Task", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 1, Code: "old", Correct: models.Bool(true)})

		view := s.FetchTask(ctx, 1)
		recv(t, view)

		if err := s.SaveTask(ctx, 1, "new", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got := recv(t, view)
		if got.Code != "new" || got.Correct != nil {
			t.Errorf("expected code and verdict replaced, got %+v", got)
		}
	})

	t.Run("Unknown Id Is Not Inserted", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		tasks, unsubscribe := s.SubscribeTasks()
		defer unsubscribe()
		if got := recv(t, tasks); len(got) != 0 {
			t.Fatalf("expected empty initial list, got %v", got)
		}

		if err := s.SaveTask(ctx, 9, "code", models.Bool(true)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		expectSilent(t, tasks)
		if len(s.Tasks()) != 0 {
			t.Errorf("expected list untouched, got %v", s.Tasks())
		}
		if s.Correctness(9) != models.Correct {
			t.Errorf("expected progress patched, got %v", s.Correctness(9))
		}
	})

	t.Run("Backend Failure Applies Nothing", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 1, Code: "old"})
		fake.SaveTaskErr = errors.New("backend down")

		err := s.SaveTask(ctx, 1, "new", models.Bool(true))
		if !errors.Is(err, shared.ErrTaskSave) {
			t.Fatalf("expected ErrTaskSave, got %v", err)
		}

		task, _ := s.Task(1)
		if task.Code != "old" {
			t.Errorf("expected code unchanged, got %q", task.Code)
		}
		if s.Correctness(1) != models.Undetermined {
			t.Errorf("expected no verdict, got %v", s.Correctness(1))
		}
	})

	t.Run("Async", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})

		if err := recv(t, s.SaveTaskAsync(ctx, 2, "x", models.Bool(true))); err != nil {
			t.Errorf("expected no error, got %v", err)
		}

		fake.SaveTaskErr = errors.New("backend down")
		if err := recv(t, s.SaveTaskAsync(ctx, 2, "y", nil)); !errors.Is(err, shared.ErrTaskSave) {
			t.Errorf("expected ErrTaskSave, got %v", err)
		}
	})
}

func TestStoreFetchTasks(t *testing.T) {
	ctx := context.Background()

	t.Run("Results Follow Input Order Regardless Of Completion", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetTask(1, "a", models.Bool(true))
		fake.SetTask(2, "b", models.Bool(false))
		release1 := fake.Gate(1)
		release2 := fake.Gate(2)

		view1 := s.FetchTask(ctx, 1)
		view2 := s.FetchTask(ctx, 2)

		input := []models.Task{{TaskID: 1}, {TaskID: 2}}
		type result struct {
			tasks []models.Task
			err   error
		}
		done := make(chan result, 1)
		go func() {
			tasks, err := s.FetchTasks(ctx, input)
			done <- result{tasks, err}
		}()

		waitFor(t, func() bool { return len(fake.Gets()) == 2 })
		release2()
		time.Sleep(10 * time.Millisecond)
		expectSilent(t, view2)
		release1()

		res := recv(t, done)
		if res.err != nil {
			t.Fatalf("expected no error, got %v", res.err)
		}
		if !slices.Equal(taskIDs(res.tasks), []int{1, 2}) {
			t.Errorf("expected input order, got %v", taskIDs(res.tasks))
		}
		for i, task := range input {
			if task.Code != "" || task.Correct != nil {
				t.Errorf("expected caller's input[%d] to be untouched, got %+v", i, task)
			}
		}
		res.tasks[0].Code = "changed"
		if input[0].Code != "" {
			t.Error("expected the returned slice not to alias the input")
		}

		got1 := recv(t, view1)
		if got1.Code != "a" || got1.Verdict() != models.Correct {
			t.Errorf("unexpected task 1 %+v", got1)
		}
		got2 := recv(t, view2)
		if got2.Code != "b" || got2.Verdict() != models.Incorrect {
			t.Errorf("unexpected task 2 %+v", got2)
		}

		if input[0].Code != "" || input[1].Correct != nil {
			t.Errorf("caller slice was mutated: %+v", input)
		}
	})

	t.Run("Publishes Once", func(t *testing.T) {
		reg := prom.NewRegistry()
		s, fake := newTestStore(t, StoreOpts{Recorder: metrics.NewRecorder(reg)})
		for id := 1; id <= 4; id++ {
			fake.SetTask(id, "c", nil)
		}

		tasks, unsubscribe := s.SubscribeTasks()
		defer unsubscribe()
		recv(t, tasks)

		if _, err := s.FetchTasks(ctx, []models.Task{{TaskID: 1}, {TaskID: 2}, {TaskID: 3}, {TaskID: 4}}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := recv(t, tasks); len(got) != 4 {
			t.Errorf("expected 4 tasks, got %v", got)
		}
		expectSilent(t, tasks)

		if n := publishCount(t, reg, tasksStream); n != 1 {
			t.Errorf("expected 1 publication, got %v", n)
		}
	})

	t.Run("Duplicates Are Fetched Once", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetTask(1, "a", nil)
		fake.SetTask(2, "b", nil)

		got, err := s.FetchTasks(ctx, []models.Task{{TaskID: 1}, {TaskID: 2}, {TaskID: 1}})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !slices.Equal(taskIDs(got), []int{1, 2}) {
			t.Errorf("expected [1 2], got %v", taskIDs(got))
		}
		gets := fake.Gets()
		slices.Sort(gets)
		if !slices.Equal(gets, []int{1, 2}) {
			t.Errorf("expected one request per id, got %v", gets)
		}
	})

	t.Run("Any Failure Publishes Nothing", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 7, Code: "kept"})
		fake.SetTask(1, "a", nil)
		fake.GetTaskErr[2] = errors.New("boom")

		tasks, unsubscribe := s.SubscribeTasks()
		defer unsubscribe()
		recv(t, tasks)

		_, err := s.FetchTasks(ctx, []models.Task{{TaskID: 1}, {TaskID: 2}, {TaskID: 3}})
		if !errors.Is(err, shared.ErrTaskFetch) {
			t.Fatalf("expected ErrTaskFetch, got %v", err)
		}

		expectSilent(t, tasks)
		if !slices.Equal(taskIDs(s.Tasks()), []int{7}) {
			t.Errorf("expected list untouched, got %v", s.Tasks())
		}
	})

	t.Run("Empty Input Replaces List", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 7})

		got, err := s.FetchTasks(ctx, nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(got) != 0 || len(s.Tasks()) != 0 {
			t.Errorf("expected empty list, got %v", s.Tasks())
		}
	})

	t.Run("Bounded Concurrency", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{MaxConcurrency: 2})

		var input []models.Task
		var releases []func()
		for id := 1; id <= 6; id++ {
			fake.SetTask(id, "c", nil)
			releases = append(releases, fake.Gate(id))
			input = append(input, models.Task{TaskID: id})
		}

		done := make(chan error, 1)
		go func() {
			_, err := s.FetchTasks(ctx, input)
			done <- err
		}()

		waitFor(t, func() bool { return len(fake.Gets()) == 2 })
		time.Sleep(20 * time.Millisecond)
		if n := len(fake.Gets()); n != 2 {
			t.Errorf("expected 2 requests in flight, got %d", n)
		}

		for _, release := range releases {
			release()
		}
		if err := recv(t, done); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fake.MaxInFlight() != 2 {
			t.Errorf("expected max 2 concurrent requests, got %d", fake.MaxInFlight())
		}
	})

	t.Run("Rate Limit", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{RateLimit: 50})
		for id := 1; id <= 3; id++ {
			fake.SetTask(id, "c", nil)
		}

		start := time.Now()
		if _, err := s.FetchTasks(ctx, []models.Task{{TaskID: 1}, {TaskID: 2}, {TaskID: 3}}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("expected requests to be spaced out, took %v", elapsed)
		}
	})

	t.Run("Canceled Context", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetTask(1, "a", nil)
		release := fake.Gate(1)
		defer release()

		cctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() {
			_, err := s.FetchTasks(cctx, []models.Task{{TaskID: 1}})
			done <- err
		}()

		waitFor(t, func() bool { return len(fake.Gets()) == 1 })
		cancel()

		err := recv(t, done)
		if !errors.Is(err, shared.ErrTaskFetch) || !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled fetch error, got %v", err)
		}
	})

	t.Run("Sends Updates", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetTask(1, "a", nil)
		fake.SetTask(2, "b", nil)

		updates := make(chan FetchUpdate, 8)
		if _, err := s.FetchTasks(ctx, []models.Task{{TaskID: 1}, {TaskID: 2}}, WithUpdates(updates)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		close(updates)

		var phases []Phase
		for u := range updates {
			phases = append(phases, u.Phase)
		}
		want := []Phase{FetchStarted, FetchedTask, FetchedTask, FetchDone}
		if !slices.Equal(phases, want) {
			t.Errorf("expected %v, got %v", want, phases)
		}
	})
}

func TestStoreLoadProgress(t *testing.T) {
	ctx := context.Background()

	t.Run("Builds Verdicts", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.SetProgress([]int{1, 2}, []int{3})

		if err := s.LoadProgress(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tt := []struct {
			id   int
			want models.Verdict
		}{
			{1, models.Correct},
			{2, models.Correct},
			{3, models.Incorrect},
			{4, models.Undetermined},
		}
		for _, tc := range tt {
			if got := recv(t, s.IsTaskCorrect(ctx, tc.id)); got != tc.want {
				t.Errorf("IsTaskCorrect(%d) = %v, want %v", tc.id, got, tc.want)
			}
		}
	})

	t.Run("Replaces Earlier Saves", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		if err := s.SaveTask(ctx, 8, "", models.Bool(true)); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		fake.SetProgress([]int{1}, nil)
		if err := s.LoadProgress(ctx); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Correctness(8) != models.Undetermined {
			t.Errorf("expected load to replace the map, got %v", s.Progress())
		}
	})

	t.Run("Failure", func(t *testing.T) {
		s, fake := newTestStore(t, StoreOpts{})
		fake.GetProgressErr = errors.New("boom")

		if err := s.LoadProgress(ctx); !errors.Is(err, shared.ErrProgressLoad) {
			t.Errorf("expected ErrProgressLoad, got %v", err)
		}
	})
}

func TestStoreViews(t *testing.T) {
	ctx := context.Background()

	t.Run("IsTaskCorrect Silent Before Progress", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		expectSilent(t, s.IsTaskCorrect(ctx, 1))
	})

	t.Run("FetchTask Unknown Id Emits Nothing", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		view := s.FetchTask(ctx, 42)
		s.AddTask(models.Task{TaskID: 1})
		expectSilent(t, view)
	})

	t.Run("Closed On Context Cancel", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		cctx, cancel := context.WithCancel(ctx)
		view := s.FetchTask(cctx, 1)
		cancel()
		expectClosed(t, view)
	})

	t.Run("Closed On Store Close", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		view := s.IsTaskCorrect(ctx, 1)
		s.Close()
		expectClosed(t, view)

		if err := s.LoadProgress(ctx); !errors.Is(err, shared.ErrStoreClosed) {
			t.Errorf("expected ErrStoreClosed, got %v", err)
		}
	})

	t.Run("AddTask Upserts", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 1, Code: "a"})
		s.AddTask(models.Task{TaskID: 2, Code: "b"})
		s.AddTask(models.Task{TaskID: 1, Code: "c"})

		if !slices.Equal(taskIDs(s.Tasks()), []int{2, 1}) {
			t.Errorf("expected [2 1], got %v", taskIDs(s.Tasks()))
		}
		if task, _ := s.Task(1); task.Code != "c" {
			t.Errorf("expected replaced code, got %q", task.Code)
		}
	})

	t.Run("Snapshots Are Copies", func(t *testing.T) {
		s, _ := newTestStore(t, StoreOpts{})
		s.AddTask(models.Task{TaskID: 1, Correct: models.Bool(true)})

		snap := s.Tasks()
		*snap[0].Correct = false
		if task, _ := s.Task(1); !*task.Correct {
			t.Error("snapshot shares memory with the store")
		}
	})

	t.Run("Records Subscribers", func(t *testing.T) {
		reg := prom.NewRegistry()
		s, _ := newTestStore(t, StoreOpts{Recorder: metrics.NewRecorder(reg)})
		_, unsubscribe := s.SubscribeProgress()
		defer unsubscribe()

		families, err := reg.Gather()
		if err != nil {
			t.Fatalf("gather failed: %v", err)
		}
		for _, f := range families {
			if f.GetName() != "studyx_store_subscribers" {
				continue
			}
			for _, m := range f.GetMetric() {
				if m.GetGauge().GetValue() == 1 {
					return
				}
			}
		}
		t.Error("expected a progress subscriber to be recorded")
	})
}
