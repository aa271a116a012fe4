package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/amishk599/odishajobs/internal/model"
)

type naturalKey struct{ title, organization string }

// MemoryStore keeps job records in process memory. It enforces the same
// natural-key uniqueness as the SQL stores.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]model.JobRecord
	keys    map[naturalKey]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.JobRecord),
		keys:    make(map[naturalKey]string),
	}
}

func matches(r model.JobRecord, f model.RecordFilter) bool {
	switch {
	case f.Status != "" && r.Status != f.Status:
		return false
	case f.Category != "" && r.Category != f.Category:
		return false
	case f.Title != "" && r.Title != f.Title:
		return false
	case f.Organization != "" && r.Organization != f.Organization:
		return false
	case f.AIProcessed != nil && r.IsAIProcessed != *f.AIProcessed:
		return false
	}
	return true
}

// Find returns records matching filter, newest first.
func (s *MemoryStore) Find(_ context.Context, filter model.RecordFilter) ([]model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []model.JobRecord{}
	for _, r := range s.records {
		if matches(r, filter) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// FindByID returns the record with id, or model.ErrNotFound.
func (s *MemoryStore) FindByID(_ context.Context, id string) (*model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

// Create inserts a record or fails with model.ErrDuplicate.
func (s *MemoryStore) Create(_ context.Context, in model.NewRecord) (model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := naturalKey{in.Title, in.Organization}
	if _, exists := s.keys[key]; exists {
		return model.JobRecord{}, fmt.Errorf("%w: %q / %q", model.ErrDuplicate, in.Title, in.Organization)
	}
	rec := newRecord(in, time.Now().UTC())
	s.records[rec.ID] = rec
	s.keys[key] = rec.ID
	return rec, nil
}

// Update applies the non-nil fields of upd.
func (s *MemoryStore) Update(_ context.Context, id string, upd model.RecordUpdate) (model.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return model.JobRecord{}, model.ErrNotFound
	}
	if upd.Tags != nil {
		r.Tags = append([]string(nil), upd.Tags...)
	}
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.IsAIProcessed != nil {
		r.IsAIProcessed = *upd.IsAIProcessed
	}
	if upd.AISummary != nil {
		summary := *upd.AISummary
		r.AISummary = &summary
	}
	if upd.Resources != nil {
		rs := *upd.Resources
		r.Resources = &rs
	}
	r.UpdatedAt = time.Now().UTC()
	s.records[id] = r
	return r, nil
}

// Delete removes the record with id and reports whether it existed.
func (s *MemoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return false, nil
	}
	delete(s.records, id)
	delete(s.keys, naturalKey{r.Title, r.Organization})
	return true, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
