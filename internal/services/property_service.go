package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"bienesraices/internal/models"
	"bienesraices/internal/repositories"
	"bienesraices/internal/storage"
)

// PageSize is the number of listings per page of the owner's dashboard.
const PageSize = 10

// ErrInvalidPage is returned for page numbers below 1.
var ErrInvalidPage = errors.New("invalid page number")

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// PropertyRequest is the create/edit form of a listing. Every field is applied explicitly.
type PropertyRequest struct {
	Title       string `form:"titulo" json:"titulo" validate:"required"`
	Description string `form:"descripcion" json:"descripcion" validate:"required,max=200"`
	CategoryID  uint   `form:"categoria" json:"categoria" validate:"required"`
	PriceID     uint   `form:"precio" json:"precio" validate:"required"`
	Rooms       int    `form:"habitaciones" json:"habitaciones" validate:"min=1,max=10"`
	Parking     int    `form:"estacionamiento" json:"estacionamiento" validate:"min=1,max=10"`
	Bathrooms   int    `form:"wc" json:"wc" validate:"min=1,max=10"`
	Street      string `form:"calle" json:"calle" validate:"required"`
	Lat         string `form:"lat" json:"lat" validate:"required"`
	Lng         string `form:"lng" json:"lng" validate:"required"`
}

func (r PropertyRequest) apply(p *models.Property) {
	p.Title = r.Title
	p.Description = r.Description
	p.CategoryID = r.CategoryID
	p.PriceID = r.PriceID
	p.Rooms = r.Rooms
	p.Parking = r.Parking
	p.Bathrooms = r.Bathrooms
	p.Street = r.Street
	p.Lat = r.Lat
	p.Lng = r.Lng
}

// RequestFrom fills a form with the current values of p.
func RequestFrom(p *models.Property) PropertyRequest {
	return PropertyRequest{
		Title:       p.Title,
		Description: p.Description,
		CategoryID:  p.CategoryID,
		PriceID:     p.PriceID,
		Rooms:       p.Rooms,
		Parking:     p.Parking,
		Bathrooms:   p.Bathrooms,
		Street:      p.Street,
		Lat:         p.Lat,
		Lng:         p.Lng,
	}
}

// OwnedPage is one page of a user's listings.
type OwnedPage struct {
	Properties []models.Property
	Page       int
	Pages      int
	Total      int64
	Offset     int
	Limit      int
}

// FormOptions holds the choices of the listing form.
type FormOptions struct {
	Categories []models.Category
	Prices     []models.Price
}

// PropertyService handles the listings of authenticated users.
type PropertyService struct {
	properties repositories.PropertyRepository
	messages   repositories.MessageRepository
	catalog    repositories.CatalogRepository
	images     storage.ImageStore
}

// NewPropertyService creates a new PropertyService.
func NewPropertyService(
	properties repositories.PropertyRepository,
	messages repositories.MessageRepository,
	catalog repositories.CatalogRepository,
	images storage.ImageStore,
) *PropertyService {
	return &PropertyService{
		properties: properties,
		messages:   messages,
		catalog:    catalog,
		images:     images,
	}
}

// FormOptions returns the categories and prices offered by the listing form.
func (s *PropertyService) FormOptions(ctx context.Context) (*FormOptions, error) {
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	prices, err := s.catalog.Prices(ctx)
	if err != nil {
		return nil, err
	}
	return &FormOptions{Categories: categories, Prices: prices}, nil
}

// ListOwned returns page (1-based) of the listings owned by userID.
func (s *PropertyService) ListOwned(ctx context.Context, userID string, page int) (*OwnedPage, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}
	offset := (page - 1) * PageSize
	properties, total, err := s.properties.ListByOwner(ctx, userID, PageSize, offset)
	if err != nil {
		return nil, err
	}
	pages := int((total + PageSize - 1) / PageSize)
	return &OwnedPage{
		Properties: properties,
		Page:       page,
		Pages:      pages,
		Total:      total,
		Offset:     offset,
		Limit:      PageSize,
	}, nil
}

// Create stores a new unpublished listing owned by userID.
func (s *PropertyService) Create(ctx context.Context, userID string, req PropertyRequest) (*models.Property, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	property := &models.Property{UserID: userID}
	req.apply(property)
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}
	log.Printf("Property %s created by user %s", property.ID, userID)
	return property, nil
}

// GetForOwner loads a listing and checks that userID owns it.
func (s *PropertyService) GetForOwner(ctx context.Context, id, userID string) (*models.Property, error) {
	property, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(property, userID); err != nil {
		return nil, err
	}
	return property, nil
}

// Update replaces the editable fields of a listing.
func (s *PropertyService) Update(ctx context.Context, id, userID string, req PropertyRequest) (*models.Property, error) {
	property, err := s.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	req.apply(property)
	if err := s.properties.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to update property: %w", err)
	}
	return property, nil
}

// Delete removes a listing, its messages and its image.
func (s *PropertyService) Delete(ctx context.Context, id, userID string) error {
	property, err := s.GetForOwner(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, property.ID); err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	if property.Image != "" {
		if err := s.images.Delete(ctx, property.Image); err != nil {
			log.Printf("Failed to delete image %s of property %s: %v", property.Image, property.ID, err)
		}
	}
	return nil
}

// TogglePublished flips the published flag of a listing.
func (s *PropertyService) TogglePublished(ctx context.Context, id, userID string) (*models.Property, error) {
	property, err := s.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	property.Published = !property.Published
	if err := s.properties.Update(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to change property state: %w", err)
	}
	return property, nil
}

// GetForImageUpload returns a listing that still waits for its image.
func (s *PropertyService) GetForImageUpload(ctx context.Context, id, userID string) (*models.Property, error) {
	property, err := s.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if property.Published {
		return nil, ErrAlreadyPublic
	}
	return property, nil
}

// AttachImage stores the uploaded image under a fresh name and publishes the listing.
func (s *PropertyService) AttachImage(ctx context.Context, id, userID, filename string, r io.Reader, size int64) (*models.Property, error) {
	property, err := s.GetForImageUpload(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, ErrInvalidImage
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	name := token + ext
	if err := s.images.Save(ctx, name, r, size, contentType); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	property.Image = name
	property.Published = true
	if err := s.properties.Update(ctx, property); err != nil {
		if delErr := s.images.Delete(ctx, name); delErr != nil {
			log.Printf("Failed to remove orphaned image %s: %v", name, delErr)
		}
		return nil, fmt.Errorf("failed to attach image: %w", err)
	}
	return property, nil
}

// GetPublished returns a listing for public display. Unpublished listings are not found.
func (s *PropertyService) GetPublished(ctx context.Context, id string) (*models.Property, error) {
	property, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !property.Published {
		return nil, ErrNotFound
	}
	return property, nil
}

// ListMessages returns the buyer messages of a listing owned by userID.
func (s *PropertyService) ListMessages(ctx context.Context, id, userID string) (*models.Property, []models.Message, error) {
	property, err := s.GetForOwner(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.ListByProperty(ctx, property.ID)
	if err != nil {
		return nil, nil, err
	}
	return property, messages, nil
}

func (s *PropertyService) get(ctx context.Context, id string) (*models.Property, error) {
	property, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return property, nil
}
