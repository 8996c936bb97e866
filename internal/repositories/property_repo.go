package repositories

import (
	"context"

	"bienesraices/internal/models"
)

// PropertyFilter narrows the public listing queries. Zero values mean no restriction.
type PropertyFilter struct {
	CategoryID uint
	Term       string
	Limit      int
}

// PropertyRepository defines the interface for listing data access.
type PropertyRepository interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
	ListByOwner(ctx context.Context, userID string, limit, offset int) ([]models.Property, int64, error)
	ListPublished(ctx context.Context, filter PropertyFilter) ([]models.Property, error)
	Create(ctx context.Context, property *models.Property) error
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id string) error
}
