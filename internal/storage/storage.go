// Package storage keeps the outcome of recent search connectivity checks in
// memory so health responses can report when a cluster was last reachable.
package storage

import (
	"errors"
	"maps"
	"slices"
	"sync"
	"time"
)

// ErrInvalidProbe indicates a probe result without a flavor or check time.
var ErrInvalidProbe = errors.New("probe result must name a flavor and a check time")

// ProbeResult is the outcome of one connectivity check.
type ProbeResult struct {
	Flavor    string
	CheckedAt time.Time
	Latency   time.Duration
	Err       string
}

// OK reports whether the check succeeded.
func (r ProbeResult) OK() bool {
	return r.Err == ""
}

// Storage records probe outcomes per client flavor.
type Storage interface {
	RecordProbe(result ProbeResult) error
	LastProbe(flavor string) (ProbeResult, bool)
	LastSuccess(flavor string) (ProbeResult, bool)
	Flavors() []string
}

// MemoryStorage keeps the latest results in maps guarded by a RWMutex.
type MemoryStorage struct {
	mu          sync.RWMutex
	last        map[string]ProbeResult
	lastSuccess map[string]ProbeResult
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		last:        make(map[string]ProbeResult),
		lastSuccess: make(map[string]ProbeResult),
	}
}

// RecordProbe stores result as the latest for its flavor. Results older than
// the one already stored are ignored so concurrent checks cannot roll back.
func (s *MemoryStorage) RecordProbe(result ProbeResult) error {
	if result.Flavor == "" || result.CheckedAt.IsZero() {
		return ErrInvalidProbe
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.last[result.Flavor]; !ok || !result.CheckedAt.Before(prev.CheckedAt) {
		s.last[result.Flavor] = result
	}
	if result.OK() {
		if prev, ok := s.lastSuccess[result.Flavor]; !ok || !result.CheckedAt.Before(prev.CheckedAt) {
			s.lastSuccess[result.Flavor] = result
		}
	}
	return nil
}

// LastProbe returns the most recent result for flavor.
func (s *MemoryStorage) LastProbe(flavor string) (ProbeResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.last[flavor]
	return r, ok
}

// LastSuccess returns the most recent successful result for flavor.
func (s *MemoryStorage) LastSuccess(flavor string) (ProbeResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.lastSuccess[flavor]
	return r, ok
}

// Flavors lists the flavors with at least one recorded result, sorted.
func (s *MemoryStorage) Flavors() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.last))
}
