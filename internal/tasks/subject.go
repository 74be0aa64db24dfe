package tasks

import "sync"

// Subject is a replay-of-one stream.
//
// Subscribers receive the last published value on subscription and every later publication in order.
// Each subscriber channel holds at most one pending value: when a subscriber falls behind,
// the pending value is replaced by the newer one, so Publish never blocks.
type Subject[T any] struct {
	mu       sync.Mutex
	value    T
	hasValue bool
	subs     map[int]chan T
	nextID   int
	closed   bool
	copyFn   func(T) T
	onCount  func(n int)
}

// NewSubject creates a Subject with no initial value.
//
// copyFn, when non-nil, is applied to every value handed to a subscriber.
func NewSubject[T any](copyFn func(T) T) *Subject[T] {
	return &Subject[T]{subs: make(map[int]chan T), copyFn: copyFn}
}

// NewBehaviorSubject creates a Subject seeded with initial.
func NewBehaviorSubject[T any](initial T, copyFn func(T) T) *Subject[T] {
	s := NewSubject(copyFn)
	s.value = initial
	s.hasValue = true
	return s
}

// OnSubscribersChanged registers fn to receive the subscriber count whenever it changes.
func (s *Subject[T]) OnSubscribersChanged(fn func(n int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCount = fn
}

// Publish stores v as the current value and delivers it to every subscriber.
//
// Publishing on a closed Subject is a no-op.
func (s *Subject[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.value = v
	s.hasValue = true
	for _, ch := range s.subs {
		s.deliver(ch, v)
	}
}

// deliver replaces any pending value in ch with v. Callers hold s.mu, which makes this the only sender.
func (s *Subject[T]) deliver(ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- s.copy(v)
}

func (s *Subject[T]) copy(v T) T {
	if s.copyFn == nil {
		return v
	}
	return s.copyFn(v)
}

// Value returns the current value and whether one has been published.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copy(s.value), s.hasValue
}

// Subscribe returns a channel that first yields the current value (if any) and then every publication.
//
// The channel is closed by the returned unsubscribe func or by [Subject.Close].
// Subscribing to a closed Subject returns an already closed channel.
func (s *Subject[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan T, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	if s.hasValue {
		ch <- s.copy(s.value)
	}

	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.notifyCount()

	var once sync.Once
	return ch, func() { once.Do(func() { s.unsubscribe(id) }) }
}

func (s *Subject[T]) unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.subs[id]
	if !ok {
		return
	}
	delete(s.subs, id)
	close(ch)
	s.notifyCount()
}

// Subscribers returns the number of open subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Subject[T]) notifyCount() {
	if s.onCount != nil {
		s.onCount(len(s.subs))
	}
}

// Close closes every subscriber channel. Further publications are dropped.
func (s *Subject[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.notifyCount()
}
