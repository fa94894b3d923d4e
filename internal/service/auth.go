package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/models"
)

// AuthBackend defines the backend session operations.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Logout(ctx context.Context) error
}

// SessionCache stores the session once the backend accepted it.
type SessionCache interface {
	SetSession(user models.User, token string)
	Clear()
}

// Resetter drops cached data tied to the session.
type Resetter interface {
	Reset()
}

// AuthService implements login and logout for the admin client.
type AuthService struct {
	backend AuthBackend
	session SessionCache
	data    Resetter
	log     *zap.Logger
}

// NewAuthService constructs an AuthService. data may be nil.
func NewAuthService(backend AuthBackend, session SessionCache, data Resetter, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{backend: backend, session: session, data: data, log: log}
}

// Login authenticates and stores the session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	s.session.SetSession(*user, token)
	return user, nil
}

// Logout ends the backend session and always clears local state, even when
// the backend call fails.
func (s *AuthService) Logout(ctx context.Context) {
	if err := s.backend.Logout(ctx); err != nil {
		s.log.Warn("backend logout failed", zap.Error(err))
	}
	s.session.Clear()
	if s.data != nil {
		s.data.Reset()
	}
}
