package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bienesraices/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// likeEscaper makes search terms match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// GORMPropertyRepository is a GORM implementation of PropertyRepository.
type GORMPropertyRepository struct {
	db *gorm.DB
}

// NewGORMPropertyRepository creates a new instance of GORMPropertyRepository.
func NewGORMPropertyRepository(db *gorm.DB) *GORMPropertyRepository {
	return &GORMPropertyRepository{
		db: db,
	}
}

// GetByID retrieves a listing with its category and price.
func (r *GORMPropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Price").
		First(&property, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("property with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get property by ID %s: %w", id, err)
	}
	return &property, nil
}

// ListByOwner returns one page of a user's listings and the user's total listing count.
func (r *GORMPropertyRepository) ListByOwner(ctx context.Context, userID string, limit, offset int) ([]models.Property, int64, error) {
	var (
		properties []models.Property
		total      int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Property{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count properties for user %s: %w", userID, err)
	}
	err := db.Preload("Category").
		Preload("Price").
		Preload("Messages").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&properties).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties for user %s: %w", userID, err)
	}
	return properties, total, nil
}

// ListPublished returns published listings matching filter, newest first.
func (r *GORMPropertyRepository) ListPublished(ctx context.Context, filter PropertyFilter) ([]models.Property, error) {
	var properties []models.Property
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Price").
		Where("published = ?", true)
	if filter.CategoryID != 0 {
		q = q.Where("category_id = ?", filter.CategoryID)
	}
	if filter.Term != "" {
		q = q.Where(`title LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(filter.Term)+"%")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Order("created_at DESC").Find(&properties).Error; err != nil {
		return nil, fmt.Errorf("failed to list published properties: %w", err)
	}
	return properties, nil
}

// Create creates a new listing in the database.
func (r *GORMPropertyRepository) Create(ctx context.Context, property *models.Property) error {
	if property.ID == "" {
		property.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(property).Error; err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

// Update writes every column of the listing; associations are left untouched.
func (r *GORMPropertyRepository) Update(ctx context.Context, property *models.Property) error {
	res := r.db.WithContext(ctx).
		Model(property).
		Select("*").
		Omit(clause.Associations, "CreatedAt").
		Updates(property)
	if res.Error != nil {
		return fmt.Errorf("failed to update property: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("property with ID %s not found for update: %w", property.ID, ErrNotFound)
	}
	return nil
}

// Delete removes a listing and the messages left on it.
func (r *GORMPropertyRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("property_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages of property %s: %w", id, err)
		}
		res := tx.Delete(&models.Property{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("failed to delete property: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("property with ID %s not found for deletion: %w", id, ErrNotFound)
		}
		return nil
	})
}
