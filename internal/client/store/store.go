// Package store holds the admin client's in-memory mirror of backend data.
//
// Store caches chalets and pages, AuthStore caches the session. Both persist
// a JSON snapshot through a storage.Storage so they survive restarts. The
// backend stays the source of truth: mutators are called only after the
// corresponding backend write has succeeded.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/client/storage"
	"github.com/qrchalets/chalets/internal/models"
)

// AdminStorageKey is the storage key of the chalets and pages snapshot.
const AdminStorageKey = "qr-chalets-admin-storage"

// Fetcher loads the collections from the backend.
type Fetcher interface {
	ListChalets(ctx context.Context) ([]models.Chalet, error)
	ListPages(ctx context.Context) ([]models.Page, error)
}

type snapshot struct {
	Chalets     []models.Chalet `json:"chalets"`
	Pages       []models.Page   `json:"pages"`
	Initialized bool            `json:"initialized"`
}

// Store is the cached mirror of the backend's chalets and pages.
type Store struct {
	fetcher Fetcher
	storage storage.Storage
	log     *zap.Logger

	mu          sync.Mutex
	chalets     []models.Chalet
	pages       []models.Page
	initialized bool
	loading     bool
}

// New creates a Store and rehydrates it from st. An unreadable snapshot is
// logged and ignored. st and log may be nil.
func New(fetcher Fetcher, st storage.Storage, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{fetcher: fetcher, storage: st, log: log}
	s.rehydrate(context.Background())
	return s
}

func (s *Store) rehydrate(ctx context.Context) {
	if s.storage == nil {
		return
	}
	data, err := s.storage.GetItem(ctx, AdminStorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("failed to read admin snapshot", zap.Error(err))
		}
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.log.Warn("discarding unreadable admin snapshot", zap.Error(err))
		return
	}
	s.chalets = snap.Chalets
	s.pages = snap.Pages
	s.initialized = snap.Initialized
}

// persist writes the snapshot. The caller holds s.mu.
func (s *Store) persist() {
	if s.storage == nil {
		return
	}
	data, err := json.Marshal(snapshot{Chalets: s.chalets, Pages: s.pages, Initialized: s.initialized})
	if err != nil {
		s.log.Error("failed to encode admin snapshot", zap.Error(err))
		return
	}
	if err := s.storage.SetItem(context.Background(), AdminStorageKey, data); err != nil {
		s.log.Warn("failed to persist admin snapshot", zap.Error(err))
	}
}

// Fetch reloads both collections from the backend.
//
// A call made while another fetch is running returns nil immediately without
// touching the network. On failure both collections are emptied and the store
// is still marked initialized; the error is returned for logging.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	chalets, pages, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.initialized = true
	if err != nil {
		s.chalets = []models.Chalet{}
		s.pages = []models.Page{}
		s.persist()
		return fmt.Errorf("fetch admin data: %w", err)
	}
	s.chalets = chalets
	s.pages = pages
	s.persist()
	return nil
}

func (s *Store) load(ctx context.Context) ([]models.Chalet, []models.Page, error) {
	chalets, err := s.fetcher.ListChalets(ctx)
	if err != nil {
		return nil, nil, err
	}
	pages, err := s.fetcher.ListPages(ctx)
	if err != nil {
		return nil, nil, err
	}
	return chalets, pages, nil
}

// Initialize fetches unless the store already holds initialized data. An
// initialized store with no chalets is fetched again, since that is what a
// failed or interrupted earlier fetch leaves behind.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	needed := !s.initialized || len(s.chalets) == 0
	s.mu.Unlock()
	if !needed {
		return nil
	}
	return s.Fetch(ctx)
}

// Reset drops the cached collections and the initialized flag.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chalets = nil
	s.pages = nil
	s.initialized = false
	s.persist()
}

// Initialized reports whether a fetch has completed.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Loading reports whether a fetch is running.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Chalets returns a copy of the cached chalets.
func (s *Store) Chalets() []models.Chalet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.chalets)
}

// Pages returns a copy of the cached pages.
func (s *Store) Pages() []models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.pages)
}

// Chalet returns the cached chalet with the given id.
func (s *Store) Chalet(id string) (models.Chalet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.chalets, func(c models.Chalet) bool { return c.ID == id })
	if i < 0 {
		return models.Chalet{}, false
	}
	return s.chalets[i], true
}

// Page returns the cached page with the given id.
func (s *Store) Page(id string) (models.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.pages, func(p models.Page) bool { return p.ID == id })
	if i < 0 {
		return models.Page{}, false
	}
	return s.pages[i], true
}

// PagesForChalet returns the cached pages referencing chaletID.
func (s *Store) PagesForChalet(chaletID string) []models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Page
	for _, p := range s.pages {
		if p.BelongsTo(chaletID) {
			out = append(out, p)
		}
	}
	return out
}

// PageCount returns the number of cached pages referencing chaletID.
func (s *Store) PageCount(chaletID string) int {
	return len(s.PagesForChalet(chaletID))
}

// PageBySlug finds a page of chaletID by slug.
func (s *Store) PageBySlug(chaletID, slug string) (models.Page, bool) {
	for _, p := range s.PagesForChalet(chaletID) {
		if p.Slug == slug {
			return p, true
		}
	}
	return models.Page{}, false
}

// AddChalet appends a chalet confirmed by the backend.
func (s *Store) AddChalet(c models.Chalet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chalets = append(s.chalets, c)
	s.persist()
}

// UpdateChalet replaces the chalet with the same id.
func (s *Store) UpdateChalet(c models.Chalet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.chalets {
		if s.chalets[i].ID == c.ID {
			s.chalets[i] = c
		}
	}
	s.persist()
}

// RemoveChalet removes the chalet and every cached page referencing it.
func (s *Store) RemoveChalet(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chalets = slices.DeleteFunc(s.chalets, func(c models.Chalet) bool { return c.ID == id })
	s.pages = slices.DeleteFunc(s.pages, func(p models.Page) bool { return p.BelongsTo(id) })
	s.persist()
}

// AddPage appends a page confirmed by the backend.
func (s *Store) AddPage(p models.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, p)
	s.persist()
}

// UpdatePage replaces the page with the same id.
func (s *Store) UpdatePage(p models.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.pages {
		if s.pages[i].ID == p.ID {
			s.pages[i] = p
		}
	}
	s.persist()
}

// RemovePage removes the page with the given id.
func (s *Store) RemovePage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = slices.DeleteFunc(s.pages, func(p models.Page) bool { return p.ID == id })
	s.persist()
}
