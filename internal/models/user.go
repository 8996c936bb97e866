package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User represents an account holder. Token is set only while a confirmation or
// password reset is pending.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"nombre" gorm:"type:varchar(60);not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	Confirmed bool      `json:"confirmado" gorm:"not null;default:false"`
	Token     *string   `json:"-" gorm:"index;type:varchar(64)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the table name stable across drivers.
func (User) TableName() string { return "usuarios" }

// VerifyPassword reports whether raw matches the stored bcrypt hash.
func (u *User) VerifyPassword(raw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil
}

// HasPendingToken reports whether a confirmation or reset token is outstanding.
func (u *User) HasPendingToken() bool {
	return u.Token != nil && *u.Token != ""
}
