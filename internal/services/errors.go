package services

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrUnknownEmail       = errors.New("email does not belong to any user")
	ErrInvalidToken       = errors.New("invalid or already used token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotConfirmed       = errors.New("user not confirmed")
	ErrWrongPassword      = errors.New("wrong password")

	ErrInvalidCredential = errors.New("invalid session credential")
	ErrSigningKey        = errors.New("session signing secret unavailable")

	ErrNotFound      = errors.New("resource not found")
	ErrForbidden     = errors.New("resource belongs to another user")
	ErrAlreadyPublic = errors.New("property already published")
	ErrInvalidImage  = errors.New("unsupported image type")
)

// FieldError is a single user-facing validation message.
type FieldError struct {
	Field string `json:"campo,omitempty"`
	Msg   string `json:"msg"`
}

// ValidationError carries every failing field of a request, in declaration order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
