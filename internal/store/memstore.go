// Package store provides persistence for ContactKitt.
// This file contains the in-memory implementation used for testing.
package store

import (
	"context"
	"sort"
	"sync"
)

// MemStore is an in-memory implementation of Storer for testing.
// Key generation mirrors IndexedDB: monotonic, never reused.
type MemStore struct {
	mu       sync.RWMutex
	contacts map[int64]*Contact
	nextID   int64
}

// NewMemStore creates a new in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		contacts: make(map[int64]*Contact),
		nextID:   1,
	}
}

// Init is a no-op for MemStore; the collection exists from construction.
func (s *MemStore) Init(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op for MemStore.
func (s *MemStore) Close() error {
	return nil
}

// =============================================================================
// Contact CRUD
// =============================================================================

func (s *MemStore) List(ctx context.Context) ([]*Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		cp := *c
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *MemStore) Insert(ctx context.Context, c *Contact) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deep copy to avoid mutation issues
	stored := *c
	stored.ID = s.nextID
	s.nextID++
	s.contacts[stored.ID] = &stored

	c.ID = stored.ID
	return stored.ID, nil
}

func (s *MemStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.contacts, id)
	return nil
}

func (s *MemStore) Update(ctx context.Context, c *Contact) error {
	if err := checkKey(c.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	s.contacts[c.ID] = &stored
	if c.ID >= s.nextID {
		s.nextID = c.ID + 1
	}
	return nil
}
