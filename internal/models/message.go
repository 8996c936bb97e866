package models

import "time"

// Message is a note left by a prospective buyer on a listing.
type Message struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Body       string    `json:"mensaje" gorm:"type:varchar(200);not null"`
	PropertyID string    `json:"propiedadId" gorm:"type:varchar(36);not null;index"`
	UserID     string    `json:"usuarioId" gorm:"type:varchar(36);not null;index"`
	User       *User     `json:"usuario,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Message) TableName() string { return "mensajes" }
