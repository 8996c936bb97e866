package repositories

import (
	"context"
	"errors"
	"fmt"

	"bienesraices/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository gives access to the fixed category and price lists.
type CatalogRepository interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Prices(ctx context.Context) ([]models.Price, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
}

// GORMCatalogRepository is a GORM implementation of CatalogRepository.
type GORMCatalogRepository struct {
	db *gorm.DB
}

// NewGORMCatalogRepository creates a new instance of GORMCatalogRepository.
func NewGORMCatalogRepository(db *gorm.DB) *GORMCatalogRepository {
	return &GORMCatalogRepository{db: db}
}

func (r *GORMCatalogRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *GORMCatalogRepository) Prices(ctx context.Context) ([]models.Price, error) {
	var prices []models.Price
	if err := r.db.WithContext(ctx).Order("id").Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("failed to list prices: %w", err)
	}
	return prices, nil
}

func (r *GORMCatalogRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("category with ID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get category %d: %w", id, err)
	}
	return &category, nil
}
