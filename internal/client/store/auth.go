package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/client/storage"
	"github.com/qrchalets/chalets/internal/models"
)

// AuthStorageKey is the storage key of the session snapshot.
const AuthStorageKey = "qr-chalets-auth-storage"

type authSnapshot struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// AuthStore caches the logged-in user and session token.
type AuthStore struct {
	storage storage.Storage
	log     *zap.Logger

	mu    sync.Mutex
	state authSnapshot
}

// NewAuthStore creates an AuthStore and rehydrates it from st.
func NewAuthStore(st storage.Storage, log *zap.Logger) *AuthStore {
	if log == nil {
		log = zap.NewNop()
	}
	a := &AuthStore{storage: st, log: log}
	if st == nil {
		return a
	}
	data, err := st.GetItem(context.Background(), AuthStorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("failed to read auth snapshot", zap.Error(err))
		}
		return a
	}
	if err := json.Unmarshal(data, &a.state); err != nil {
		log.Warn("discarding unreadable auth snapshot", zap.Error(err))
		a.state = authSnapshot{}
	}
	return a
}

func (a *AuthStore) persist() {
	if a.storage == nil {
		return
	}
	data, err := json.Marshal(a.state)
	if err != nil {
		a.log.Error("failed to encode auth snapshot", zap.Error(err))
		return
	}
	if err := a.storage.SetItem(context.Background(), AuthStorageKey, data); err != nil {
		a.log.Warn("failed to persist auth snapshot", zap.Error(err))
	}
}

// SetSession records a successful login.
func (a *AuthStore) SetSession(user models.User, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = authSnapshot{User: &user, Token: token, IsAuthenticated: token != ""}
	a.persist()
}

// Clear forgets the session.
func (a *AuthStore) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = authSnapshot{}
	a.persist()
}

// User returns the logged-in user, if any.
func (a *AuthStore) User() (models.User, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.User == nil {
		return models.User{}, false
	}
	return *a.state.User, true
}

// Token returns the session token, or "".
func (a *AuthStore) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Token
}

// IsAuthenticated reports whether a session is held.
func (a *AuthStore) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.IsAuthenticated
}
