package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Credentials is the subset of a user record the authenticator needs.
type Credentials struct {
	UserID       string
	Email        string
	PasswordHash string
}

// CredentialStore reads and updates login credentials.
type CredentialStore interface {
	CredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Service authenticates credentials and drives the password-reset flow. It
// issues tokens through the shared Codec; all credential failures collapse
// into ErrUnauthorized so responses never reveal whether an account exists.
type Service struct {
	codec    *Codec
	creds    CredentialStore
	notFound func(error) bool
}

// NewService constructs the authenticator. notFound classifies store errors
// the same way ContextBuilder does.
func NewService(codec *Codec, creds CredentialStore, notFound func(error) bool) (*Service, error) {
	if codec == nil {
		return nil, errors.New("auth: codec is required")
	}
	if creds == nil {
		return nil, errors.New("auth: credential store is required")
	}
	if notFound == nil {
		notFound = func(error) bool { return false }
	}
	return &Service{codec: codec, creds: creds, notFound: notFound}, nil
}

// Login verifies an email/password pair and issues an authentication token.
func (s *Service) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return "", time.Time{}, ErrUnauthorized
	}
	creds, err := s.creds.CredentialsByEmail(ctx, email)
	if err != nil {
		if s.notFound(err) {
			return "", time.Time{}, ErrUnauthorized
		}
		return "", time.Time{}, fmt.Errorf("auth: load credentials: %w", err)
	}
	if err := VerifyPassword(creds.PasswordHash, password); err != nil {
		return "", time.Time{}, ErrUnauthorized
	}
	token, err := s.codec.IssueAuthToken(creds.UserID, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, time.Now().UTC().Add(s.codec.AuthTTL()), nil
}

// RequestPasswordReset issues a purpose-tagged reset token for the account.
// An unknown email yields an empty token and no error so the endpoint can
// answer identically either way.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", nil
	}
	creds, err := s.creds.CredentialsByEmail(ctx, email)
	if err != nil {
		if s.notFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("auth: load credentials: %w", err)
	}
	return s.codec.IssuePasswordResetToken(creds.UserID)
}

// ResetPassword verifies a reset token and stores the new password hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	subject, ok := s.codec.VerifyPasswordResetToken(token)
	if !ok {
		return ErrInvalidToken
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.creds.UpdatePassword(ctx, subject, hash); err != nil {
		return fmt.Errorf("auth: update password: %w", err)
	}
	return nil
}
