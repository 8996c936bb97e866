package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bienesraices/internal/models"

	"github.com/google/uuid"
)

// MockPropertyRepository is an in-memory implementation of PropertyRepository.
type MockPropertyRepository struct {
	properties map[string]models.Property
	mu         sync.RWMutex
}

// NewMockPropertyRepository creates a new instance of MockPropertyRepository.
func NewMockPropertyRepository() *MockPropertyRepository {
	return &MockPropertyRepository{
		properties: make(map[string]models.Property),
	}
}

// GetByID returns a listing by its ID.
func (r *MockPropertyRepository) GetByID(_ context.Context, id string) (*models.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	property, ok := r.properties[id]
	if !ok {
		return nil, fmt.Errorf("property with ID %s: %w", id, ErrNotFound)
	}
	return &property, nil
}

// ListByOwner returns one page of a user's listings and the user's total.
func (r *MockPropertyRepository) ListByOwner(_ context.Context, userID string, limit, offset int) ([]models.Property, int64, error) {
	owned := r.filter(func(p models.Property) bool { return p.UserID == userID })
	total := int64(len(owned))
	if offset >= len(owned) {
		return []models.Property{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

// ListPublished returns published listings matching filter.
func (r *MockPropertyRepository) ListPublished(_ context.Context, filter PropertyFilter) ([]models.Property, error) {
	result := r.filter(func(p models.Property) bool {
		if !p.Published {
			return false
		}
		if filter.CategoryID != 0 && p.CategoryID != filter.CategoryID {
			return false
		}
		return filter.Term == "" || strings.Contains(p.Title, filter.Term)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Create adds a new listing.
func (r *MockPropertyRepository) Create(_ context.Context, property *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if property.ID == "" {
		property.ID = uuid.New().String()
	}
	now := time.Now()
	property.CreatedAt = now
	property.UpdatedAt = now
	r.properties[property.ID] = *property
	return nil
}

// Update modifies an existing listing.
func (r *MockPropertyRepository) Update(_ context.Context, property *models.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.properties[property.ID]; !ok {
		return fmt.Errorf("property with ID %s not found for update: %w", property.ID, ErrNotFound)
	}
	property.UpdatedAt = time.Now()
	r.properties[property.ID] = *property
	return nil
}

// Delete removes a listing by its ID.
func (r *MockPropertyRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.properties[id]; !ok {
		return fmt.Errorf("property with ID %s not found for deletion: %w", id, ErrNotFound)
	}
	delete(r.properties, id)
	return nil
}

// filter returns matching listings, newest first.
func (r *MockPropertyRepository) filter(match func(models.Property) bool) []models.Property {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.Property, 0, len(r.properties))
	for _, p := range r.properties {
		if match(p) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}
