package repositories

import (
	"context"

	"bienesraices/internal/models"
)

// MessageRepository defines the interface for buyer message data access.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	ListByProperty(ctx context.Context, propertyID string) ([]models.Message, error)
}
