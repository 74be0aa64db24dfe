package tasks

import (
	"slices"
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before a value arrived")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a value")
	}
	var zero T
	return zero
}

func expectSilent[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v, ok := <-ch:
		if ok {
			t.Fatalf("expected no value, got %v", v)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func expectClosed[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for channel to close")
		}
	}
}

func TestSubject(t *testing.T) {
	t.Run("Subject Without Value Is Silent", func(t *testing.T) {
		s := NewSubject[int](nil)
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		if _, ok := s.Value(); ok {
			t.Error("expected no value")
		}
		expectSilent(t, ch)
	})

	t.Run("Behavior Subject Replays Initial Value", func(t *testing.T) {
		s := NewBehaviorSubject(7, nil)
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		if got := recv(t, ch); got != 7 {
			t.Errorf("expected 7, got %d", got)
		}
	})

	t.Run("Late Subscriber Gets Latest Only", func(t *testing.T) {
		s := NewSubject[int](nil)
		s.Publish(1)
		s.Publish(2)

		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		if got := recv(t, ch); got != 2 {
			t.Errorf("expected 2, got %d", got)
		}
		expectSilent(t, ch)
	})

	t.Run("Publications Arrive In Order", func(t *testing.T) {
		s := NewSubject[int](nil)
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		for i := range 5 {
			s.Publish(i)
			if got := recv(t, ch); got != i {
				t.Fatalf("expected %d, got %d", i, got)
			}
		}
	})

	t.Run("Slow Subscriber Coalesces", func(t *testing.T) {
		s := NewSubject[int](nil)
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		for i := range 100 {
			s.Publish(i)
		}

		if got := recv(t, ch); got != 99 {
			t.Errorf("expected newest value 99, got %d", got)
		}
		expectSilent(t, ch)
	})

	t.Run("Copies Per Subscriber", func(t *testing.T) {
		s := NewSubject(func(v []int) []int { return slices.Clone(v) })
		a, unsubA := s.Subscribe()
		defer unsubA()
		b, unsubB := s.Subscribe()
		defer unsubB()

		s.Publish([]int{1, 2, 3})

		got := recv(t, a)
		got[0] = 100

		if other := recv(t, b); other[0] != 1 {
			t.Errorf("subscribers share memory: %v", other)
		}
		if v, _ := s.Value(); v[0] != 1 {
			t.Errorf("subject value was mutated: %v", v)
		}
	})

	t.Run("Unsubscribe Closes Channel", func(t *testing.T) {
		s := NewSubject[int](nil)
		ch, unsubscribe := s.Subscribe()

		if s.Subscribers() != 1 {
			t.Errorf("expected 1 subscriber, got %d", s.Subscribers())
		}

		unsubscribe()
		unsubscribe()
		expectClosed(t, ch)

		if s.Subscribers() != 0 {
			t.Errorf("expected 0 subscribers, got %d", s.Subscribers())
		}
	})

	t.Run("Close", func(t *testing.T) {
		s := NewBehaviorSubject(1, nil)
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		s.Close()
		s.Publish(2)
		expectClosed(t, ch)

		late, _ := s.Subscribe()
		expectClosed(t, late)
	})

	t.Run("Reports Subscriber Count", func(t *testing.T) {
		var counts []int
		s := NewSubject[int](nil)
		s.OnSubscribersChanged(func(n int) { counts = append(counts, n) })

		_, unsubA := s.Subscribe()
		_, unsubB := s.Subscribe()
		unsubA()
		unsubB()

		if !slices.Equal(counts, []int{1, 2, 1, 0}) {
			t.Errorf("unexpected counts %v", counts)
		}
	})
}
