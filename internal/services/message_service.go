package services

import (
	"context"
	"fmt"

	"bienesraices/internal/models"
	"bienesraices/internal/repositories"
)

// MessageRequest is the contact form shown on a published listing.
type MessageRequest struct {
	Body string `form:"mensaje" json:"mensaje" validate:"min=10,max=200"`
}

// MessageService stores messages from prospective buyers.
type MessageService struct {
	properties *PropertyService
	messages   repositories.MessageRepository
}

// NewMessageService creates a new MessageService.
func NewMessageService(properties *PropertyService, messages repositories.MessageRepository) *MessageService {
	return &MessageService{properties: properties, messages: messages}
}

// Send leaves a message from userID on a published listing.
func (s *MessageService) Send(ctx context.Context, propertyID, userID string, req MessageRequest) (*models.Message, error) {
	property, err := s.properties.GetPublished(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	message := &models.Message{
		Body:       req.Body,
		PropertyID: property.ID,
		UserID:     userID,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	return message, nil
}
