package repository

import (
	"context"
	"sync"
	"time"

	"cabinbook/internal/models"
)

// MemoryStore keeps bookings in process memory. Insertion order is preserved.
type MemoryStore struct {
	mu    sync.RWMutex
	order []string
	items map[string]models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]models.Booking)}
}

func (s *MemoryStore) Insert(_ context.Context, b *models.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b.ID = newID()
	s.items[b.ID] = *b
	s.order = append(s.order, b.ID)
	return b.ID, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Booking, 0)
	for _, id := range s.order {
		if b := s.items[id]; b.UserID == userID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = updatedAt
	s.items[id] = b
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
func (s *MemoryStore) Close() error                { return nil }
