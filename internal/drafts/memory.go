package drafts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps drafts in process memory. It backs tests and the
// "memory" driver.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string]*Draft
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts: make(map[string]*Draft),
		now:    time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, d *Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := prepare(d, s.now()); err != nil {
		return err
	}
	if existing, ok := s.drafts[d.ID]; ok {
		d.CreatedAt = existing.CreatedAt
	}
	s.drafts[d.ID] = d.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.drafts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Draft, 0, len(s.drafts))
	for _, d := range s.drafts {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[id]; !ok {
		return ErrNotFound
	}
	delete(s.drafts, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
