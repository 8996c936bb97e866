package repositories

import (
	"context"
	"sync"
	"time"

	"bienesraices/internal/models"
)

// MockMessageRepository is an in-memory implementation of MessageRepository.
type MockMessageRepository struct {
	messages []models.Message
	nextID   uint
	mu       sync.RWMutex
}

// NewMockMessageRepository creates a new instance of MockMessageRepository.
func NewMockMessageRepository() *MockMessageRepository {
	return &MockMessageRepository{nextID: 1}
}

// Create adds a new message.
func (r *MockMessageRepository) Create(_ context.Context, message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	message.ID = r.nextID
	r.nextID++
	message.CreatedAt = time.Now()
	r.messages = append(r.messages, *message)
	return nil
}

// ListByProperty returns the messages of a listing in insertion order.
func (r *MockMessageRepository) ListByProperty(_ context.Context, propertyID string) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Message, 0)
	for _, m := range r.messages {
		if m.PropertyID == propertyID {
			result = append(result, m)
		}
	}
	return result, nil
}
