package services

import (
	"context"
	"errors"
	"strings"

	"bienesraices/internal/models"
	"bienesraices/internal/repositories"
)

// Category ids shown on the home page.
const (
	categoryHouses     uint = 1
	categoryApartments uint = 2
	homeLimit               = 3
)

// Home is the data of the landing page.
type Home struct {
	Categories []models.Category
	Prices     []models.Price
	Houses     []models.Property
	Apartments []models.Property
}

// BrowseService serves the public, read-only views of published listings.
type BrowseService struct {
	properties repositories.PropertyRepository
	catalog    repositories.CatalogRepository
}

// NewBrowseService creates a new BrowseService.
func NewBrowseService(properties repositories.PropertyRepository, catalog repositories.CatalogRepository) *BrowseService {
	return &BrowseService{properties: properties, catalog: catalog}
}

// Home returns the catalog and the latest published houses and apartments.
func (s *BrowseService) Home(ctx context.Context) (*Home, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := s.catalog.Prices(ctx)
	if err != nil {
		return nil, err
	}
	houses, err := s.properties.ListPublished(ctx, repositories.PropertyFilter{CategoryID: categoryHouses, Limit: homeLimit})
	if err != nil {
		return nil, err
	}
	apartments, err := s.properties.ListPublished(ctx, repositories.PropertyFilter{CategoryID: categoryApartments, Limit: homeLimit})
	if err != nil {
		return nil, err
	}
	return &Home{
		Categories: categories,
		Prices:     prices,
		Houses:     houses,
		Apartments: apartments,
	}, nil
}

// Category returns a category and its published listings.
func (s *BrowseService) Category(ctx context.Context, id uint) (*models.Category, []models.Property, error) {
	category, err := s.catalog.GetCategory(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	properties, err := s.properties.ListPublished(ctx, repositories.PropertyFilter{CategoryID: category.ID})
	if err != nil {
		return nil, nil, err
	}
	return category, properties, nil
}

// Search returns published listings whose title contains term. An empty term finds nothing.
func (s *BrowseService) Search(ctx context.Context, term string) ([]models.Property, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrNotFound
	}
	return s.properties.ListPublished(ctx, repositories.PropertyFilter{Term: term})
}

// Published returns every published listing, for the map.
func (s *BrowseService) Published(ctx context.Context) ([]models.Property, error) {
	return s.properties.ListPublished(ctx, repositories.PropertyFilter{})
}
