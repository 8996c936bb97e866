package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"bienesraices/internal/models"
	"bienesraices/internal/notifier"
	"bienesraices/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// notifyTimeout bounds a single background dispatch.
const notifyTimeout = 30 * time.Second

// Notifier delivers the out-of-band messages of the account flows.
type Notifier interface {
	Send(ctx context.Context, msg notifier.Message) error
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Name            string `form:"nombre" json:"nombre" validate:"required"`
	Email           string `form:"email" json:"email" validate:"required,email"`
	Password        string `form:"password" json:"password" validate:"min=6"`
	PasswordConfirm string `form:"repetir-password" json:"repetir-password" validate:"eqfield=Password"`
}

// LoginRequest is the sign-in form.
type LoginRequest struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email string `form:"email" json:"email" validate:"required,email"`
}

// ResetPasswordRequest carries the new password.
type ResetPasswordRequest struct {
	Password        string `form:"password" json:"password" validate:"min=6"`
	PasswordConfirm string `form:"repetir-password" json:"repetir-password" validate:"eqfield=Password"`
}

// AuthService handles registration, confirmation, login and password recovery.
type AuthService struct {
	users      repositories.UserRepository
	tokens     *TokenService
	notifier   Notifier
	bcryptCost int
	wg         sync.WaitGroup
}

// NewAuthService creates a new AuthService. A cost below 10 is raised to 10.
func NewAuthService(users repositories.UserRepository, tokens *TokenService, n Notifier, bcryptCost int) *AuthService {
	if bcryptCost < 10 {
		bcryptCost = 10
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		notifier:   n,
		bcryptCost: bcryptCost,
	}
}

// Register creates an unconfirmed user and sends the confirmation link.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	// The unique index is authoritative; this only avoids hashing for a known duplicate.
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	token, err := NewOpaqueToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Token:    &token,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.dispatch(notifier.Message{
		Kind:  notifier.KindRegistration,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
	return user, nil
}

// Confirm consumes a confirmation token and marks its user as confirmed.
func (s *AuthService) Confirm(ctx context.Context, token string) (*models.User, error) {
	user, err := s.userByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	user.Token = nil
	user.Confirmed = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}
	return user, nil
}

// Login checks the credentials and returns a signed session credential.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (string, *models.User, error) {
	if err := validateStruct(req); err != nil {
		return "", nil, err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.Confirmed {
		return "", nil, ErrNotConfirmed
	}
	if !user.VerifyPassword(req.Password) {
		return "", nil, ErrWrongPassword
	}

	credential, err := s.tokens.IssueSessionCredential(user.ID)
	if err != nil {
		return "", nil, err
	}
	return credential, user, nil
}

// RequestPasswordReset issues a new token, replacing any pending one, and sends the reset link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req ForgotPasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := NewOpaqueToken()
	if err != nil {
		return err
	}
	user.Token = &token
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	s.dispatch(notifier.Message{
		Kind:  notifier.KindPasswordReset,
		Email: user.Email,
		Name:  user.Name,
		Token: token,
	})
	return nil
}

// VerifyResetToken reports whether token belongs to a pending reset. It does not consume it.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) (*models.User, error) {
	return s.userByToken(ctx, token)
}

// CompleteReset stores the new password and consumes the token.
func (s *AuthService) CompleteReset(ctx context.Context, token string, req ResetPasswordRequest) error {
	if err := validateStruct(req); err != nil {
		return err
	}

	user, err := s.userByToken(ctx, token)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)
	user.Token = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}

// Authenticate resolves a session credential to its user.
func (s *AuthService) Authenticate(ctx context.Context, credential string) (*models.User, error) {
	userID, err := s.tokens.VerifySessionCredential(credential)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// Wait blocks until every pending notification has been handed off.
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) userByToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	return user, nil
}

// dispatch sends msg in the background. The state change it reports is already
// committed, so a failure is only logged.
func (s *AuthService) dispatch(msg notifier.Message) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.Send(ctx, msg); err != nil {
			log.Printf("Failed to send %s notification to %s: %v", msg.Kind, msg.Email, err)
		}
	}()
}
