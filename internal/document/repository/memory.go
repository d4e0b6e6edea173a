package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gogotex/collabedit/internal/document"
)

// MemoryRepo is an in-memory repository used when MongoDB is not configured and in unit
// tests. A single mutex serializes every call, which makes GetOrCreate race-free.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*document.Document
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*document.Document), now: time.Now}
}

func (m *MemoryRepo) GetOrCreate(_ context.Context, id string, defaults document.Document) (*document.Document, error) {
	if id == "" {
		return nil, ErrInvalidID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	now := m.now()
	d := defaults.Clone()
	d.ID = id
	d.CreatedAt = now
	d.LastModified = now
	if d.Collaborators == nil {
		d.Collaborators = []document.Collaborator{}
	}
	m.store[id] = d
	return d.Clone(), nil
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.store[id]; ok {
		return d.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) Update(_ context.Context, id string, title, content *string) (*document.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	if title != nil {
		d.Title = *title
	}
	if content != nil {
		d.Content = *content
	}
	d.LastModified = m.now()
	return d.Clone(), nil
}

func (m *MemoryRepo) List(_ context.Context, limit int) ([]document.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]document.Summary, 0, len(m.store))
	for _, d := range m.store {
		out = append(out, d.Summarize())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastModified.After(out[j].LastModified)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepo) AddCollaborator(_ context.Context, id string, c document.Collaborator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range d.Collaborators {
		if existing.Username == c.Username {
			return nil
		}
	}
	d.Collaborators = append(d.Collaborators, c)
	return nil
}
