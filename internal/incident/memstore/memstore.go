// Package memstore provides an in-memory implementation of incident.Store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/linnemanlabs/incidentd/internal/incident"
)

// Store holds incidents in memory. Suitable for dev/testing.
type Store struct {
	mu        sync.RWMutex
	incidents map[int64]*incident.Incident
	nextID    int64
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		incidents: make(map[int64]*incident.Incident),
		nextID:    1,
	}
}

// Create assigns the next ID and creation timestamp, then stores a copy.
func (s *Store) Create(_ context.Context, inc *incident.Incident) (*incident.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *inc
	cp.ID = s.nextID
	s.nextID++
	cp.CreatedAt = time.Now().UTC()

	s.incidents[cp.ID] = &cp
	out := cp
	return &out, nil
}

// Get retrieves an incident by ID. Returns a copy.
func (s *Store) Get(_ context.Context, id int64) (*incident.Incident, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inc, ok := s.incidents[id]
	if !ok {
		return nil, false, nil
	}
	cp := *inc
	return &cp, true, nil
}

// List returns incidents ordered by creation time descending (ID descending
// as tiebreak, so ordering is total even with equal timestamps).
func (s *Store) List(_ context.Context, f incident.Filter) ([]incident.Incident, error) {
	s.mu.RLock()
	all := make([]incident.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		if f.Status != nil && inc.Status != *f.Status {
			continue
		}
		all = append(all, *inc)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	if f.Offset >= len(all) {
		return []incident.Incident{}, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

// Update applies only the non-nil patch fields and returns the updated copy.
func (s *Store) Update(_ context.Context, id int64, p incident.Patch) (*incident.Incident, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inc, ok := s.incidents[id]
	if !ok {
		return nil, false, nil
	}

	if p.Text != nil {
		inc.Text = *p.Text
	}
	if p.Description != nil {
		inc.Description = *p.Description
	}
	if p.Status != nil {
		inc.Status = *p.Status
	}
	if p.Source != nil {
		inc.Source = *p.Source
	}

	cp := *inc
	return &cp, true, nil
}

// CountByStatus reports the number of incidents per status.
func (s *Store) CountByStatus(_ context.Context) (map[incident.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[incident.Status]int64)
	for _, inc := range s.incidents {
		counts[inc.Status]++
	}
	return counts, nil
}
