package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sladosa/diary-multiuser/internal/auth"
	"github.com/sladosa/diary-multiuser/internal/models"
	"github.com/sladosa/diary-multiuser/internal/repo"
)

var (
	ErrMissingFields      = errors.New("email and password required")
	ErrPasswordTooShort   = fmt.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	Repo       *repo.Repo
	Auth       *auth.Manager
	TokenTTL   time.Duration
	RefreshTTL time.Duration
}

func New(r *repo.Repo, authManager *auth.Manager) *Service {
	return &Service{Repo: r, Auth: authManager, TokenTTL: time.Hour, RefreshTTL: 7 * 24 * time.Hour}
}

// Register validates the signup form before touching storage: empty
// fields, short passwords and mismatched confirmations never reach the
// backend.
func (s *Service) Register(ctx context.Context, email, password, passwordConfirm, displayName string) (string, error) {
	if email == "" || password == "" {
		return "", ErrMissingFields
	}
	if len(password) < auth.MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	if password != passwordConfirm {
		return "", ErrPasswordMismatch
	}
	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Repo.CreateUser(ctx, email, hash, displayName)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, string, error) {
	if email == "" || password == "" {
		return "", "", ErrMissingFields
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}
	if err := s.Auth.ComparePassword(u.PasswordHash, password); err != nil {
		return "", "", ErrInvalidCredentials
	}
	accessToken, err := s.Auth.GenerateToken(u.ID, s.TokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	if err := s.Repo.CreateSession(ctx, u.ID, refreshToken, time.Now().Add(s.RefreshTTL)); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// Logout revokes one session when a refresh token is supplied, otherwise
// every session the user holds.
func (s *Service) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		return s.Repo.DeleteUserSessions(ctx, userID)
	}
	err := s.Repo.DeleteSession(ctx, userID, refreshToken)
	if errors.Is(err, repo.ErrNotFound) {
		// already revoked; logout stays idempotent
		return nil
	}
	return err
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	return s.Repo.GetUserByID(ctx, userID)
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
