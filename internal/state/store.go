package state

import (
	"fmt"
	"sync"
	"time"
)

// Snapshot represents the latest fetch result available to the UI.
type Snapshot[T any] struct {
	Data                T
	Loaded              bool // at least one fetch has completed
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int    // Number of consecutive poll failures
	Version             uint64 // bumped on every Update
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot[T]) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use and copies Data by plain assignment.
type Store[T any] struct {
	mu       sync.RWMutex
	snapshot Snapshot[T]
	clone    func(T) T
}

// NewStore returns a Store that deep-copies Data with clone on every write
// and read.
func NewStore[T any](clone func(T) T) *Store[T] {
	return &Store[T]{clone: clone}
}

// Update replaces the stored data wholesale. When err is non-nil the data is
// cleared and the error is recorded.
func (s *Store[T]) Update(data T, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Loaded = true
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.Version++

	if err != nil {
		var zero T
		s.snapshot.Data = zero
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}

	s.snapshot.Data = s.copy(data)
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Reset forgets everything, returning the store to its unloaded state.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	version := s.snapshot.Version
	s.snapshot = Snapshot[T]{Version: version + 1}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Data = s.copy(s.snapshot.Data)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store[T]) copy(data T) T {
	if s.clone == nil {
		return data
	}
	return s.clone(data)
}
