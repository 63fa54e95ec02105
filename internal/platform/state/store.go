// Package state provides a snapshot holder with replace-only updates.
//
// A Store keeps one immutable value. Writers replace it as a whole through
// Update; readers either Get the current value or Subscribe to a conflated
// stream that always delivers the most recent snapshot. A slow subscriber
// never blocks writers and never observes a value that was not published.
package state

import "sync"

type Store[T any] struct {
	mu      sync.Mutex
	value   T
	version uint64
	subs    map[int]chan T
	nextSub int
	closed  bool
}

func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, subs: map[int]chan T{}}
}

// Get returns the current snapshot.
func (s *Store[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Version counts the snapshots published so far.
func (s *Store[T]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Update replaces the snapshot with fn(current). fn runs under the store
// lock and must not call back into the store. After Close, Update is a
// no-op and reports false.
func (s *Store[T]) Update(fn func(T) T) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.value, false
	}
	s.value = fn(s.value)
	s.version++
	for _, ch := range s.subs {
		offer(ch, s.value)
	}
	return s.value, true
}

// Subscribe returns a channel primed with the current snapshot and a cancel
// func. The channel is closed on cancel or when the store closes.
func (s *Store[T]) Subscribe() (<-chan T, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan T, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	ch <- s.value
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub)
			}
		})
	}
}

// Close detaches every subscriber. Later updates are dropped.
func (s *Store[T]) Close() {
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
}

// offer replaces whatever is buffered with v.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}
