package store

import (
	"context"
	"sort"
	"sync"

	"github.com/kittclouds/arbor/pkg/script"
)

// MemStore keeps stories in memory. It backs throwaway sessions and tests
// where neither SQLite nor a filesystem is wanted.
type MemStore struct {
	mu      sync.Mutex
	stories map[string]*script.Story
}

func NewMemStore() *MemStore {
	return &MemStore{stories: make(map[string]*script.Story)}
}

// SaveStory stores a deep copy, so later edits to s do not leak in.
func (m *MemStore) SaveStory(_ context.Context, s *script.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories[s.Name] = s.Clone()
	return nil
}

func (m *MemStore) LoadStory(_ context.Context, name string) (*script.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stories[name]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemStore) ListStories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.stories))
	for name := range m.stories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemStore) DeleteStory(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[name]; !ok {
		return ErrNotFound
	}
	delete(m.stories, name)
	return nil
}

func (m *MemStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stories = nil
	return nil
}
