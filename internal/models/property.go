package models

import "time"

// Property is a listing owned by a single user.
type Property struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Title       string    `json:"titulo" gorm:"type:varchar(100);not null"`
	Description string    `json:"descripcion" gorm:"type:text;not null"`
	Rooms       int       `json:"habitaciones" gorm:"not null"`
	Parking     int       `json:"estacionamiento" gorm:"not null"`
	Bathrooms   int       `json:"wc" gorm:"not null"`
	Street      string    `json:"calle" gorm:"type:varchar(60);not null"`
	Lat         string    `json:"lat" gorm:"not null"`
	Lng         string    `json:"lng" gorm:"not null"`
	Image       string    `json:"imagen" gorm:"not null;default:''"`
	Published   bool      `json:"publicado" gorm:"not null;default:false"`
	CategoryID  uint      `json:"categoriaId" gorm:"not null;index"`
	Category    *Category `json:"categoria,omitempty"`
	PriceID     uint      `json:"precioId" gorm:"not null;index"`
	Price       *Price    `json:"precio,omitempty"`
	UserID      string    `json:"usuarioId" gorm:"type:varchar(36);not null;index"`
	User        *User     `json:"-"`
	Messages    []Message `json:"mensajes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Property) TableName() string { return "propiedades" }

// OwnerID returns the id of the user who owns the listing.
func (p *Property) OwnerID() any { return p.UserID }
