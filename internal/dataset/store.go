// Package dataset holds the in-memory observation set. The original system
// kept this in implicit module-level caches; here it is an explicit store
// handle passed to whoever needs it, cleared only by Replace.
package dataset

import (
	"context"
	"errors"
	"sync"

	"github.com/floralens/bloom-data-service/internal/domain"
	"github.com/floralens/bloom-data-service/internal/ingest"
	"github.com/floralens/bloom-data-service/internal/observability"
)

// Store is the process-lifetime observation set. Snapshots handed out are
// never mutated afterwards: Replace and AppendBatch always install a fresh
// backing array, so readers may hold a snapshot across requests safely.
type Store struct {
	mu           sync.RWMutex
	observations []domain.Observation
	byID         map[string]struct{}
	report       ingest.Report
	loaded       bool

	metrics *observability.Metrics
}

// NewStore creates an empty store.
func NewStore(metrics *observability.Metrics) *Store {
	return &Store{
		byID:    make(map[string]struct{}),
		metrics: metrics,
	}
}

// Replace installs a freshly ingested dataset, discarding the previous one.
func (s *Store) Replace(observations []domain.Observation, report ingest.Report) {
	byID := make(map[string]struct{}, len(observations))
	for _, o := range observations {
		byID[o.ID] = struct{}{}
	}

	s.mu.Lock()
	s.observations = observations
	s.byID = byID
	s.report = report
	s.loaded = true
	s.mu.Unlock()

	s.metrics.DatasetSize.Set(float64(len(observations)))
}

// AppendBatch adds stream observations, skipping IDs already present.
// Returns the number actually appended.
func (s *Store) AppendBatch(observations []domain.Observation) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := make([]domain.Observation, 0, len(observations))
	for _, o := range observations {
		if _, dup := s.byID[o.ID]; dup {
			continue
		}
		s.byID[o.ID] = struct{}{}
		fresh = append(fresh, o)
	}
	if len(fresh) == 0 {
		return 0
	}

	// Copy-on-write so previously returned snapshots stay immutable.
	next := make([]domain.Observation, 0, len(s.observations)+len(fresh))
	next = append(next, s.observations...)
	next = append(next, fresh...)
	s.observations = next

	s.metrics.DatasetSize.Set(float64(len(next)))
	return len(fresh)
}

// Snapshot returns the current observation set. Callers must treat it as
// read-only.
func (s *Store) Snapshot() []domain.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.observations
}

// Report returns the ingest report for the currently installed dataset.
func (s *Store) Report() ingest.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Len reports the number of observations held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observations)
}

// CheckReadiness returns nil once an initial dataset has been installed.
func (s *Store) CheckReadiness(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}
