package id

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Generator creates opaque identifiers.
type Generator interface {
	New() string
}

// UUID generates random (version 4) UUID strings.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

// Sequence hands out prefix-1, prefix-2, ... and keeps tests deterministic.
type Sequence struct {
	Prefix string

	mu   sync.Mutex
	next int
}

func (s *Sequence) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.Prefix + "-" + strconv.Itoa(s.next)
}
