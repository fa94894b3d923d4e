// Package service provides the admin workflows: each one performs a backend
// write and, only once it succeeded, mirrors the result into the local cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/qrchalets/chalets/internal/models"
)

// ErrInvalidInput is returned before any network call when required fields
// are missing.
var ErrInvalidInput = errors.New("invalid input")

// ChaletBackend defines the backend operations needed by ChaletService.
type ChaletBackend interface {
	CreateChalet(ctx context.Context, in models.ChaletInput) (*models.Chalet, error)
	UpdateChalet(ctx context.Context, id string, in models.ChaletInput) (*models.Chalet, error)
	DeleteChalet(ctx context.Context, id string) error
	CreatePage(ctx context.Context, in models.PageInput) (*models.Page, error)
	UpdatePage(ctx context.Context, id string, in models.PageInput) (*models.Page, error)
	DeletePage(ctx context.Context, id string) error
}

// ChaletCache defines the local mirror mutated after confirmed writes.
type ChaletCache interface {
	AddChalet(c models.Chalet)
	UpdateChalet(c models.Chalet)
	RemoveChalet(id string)
	AddPage(p models.Page)
	UpdatePage(p models.Page)
	RemovePage(id string)
}

// ChaletService implements chalet and page administration.
type ChaletService struct {
	// backend performs the authoritative writes.
	backend ChaletBackend
	// cache mirrors confirmed writes.
	cache ChaletCache
}

// NewChaletService constructs a ChaletService.
func NewChaletService(backend ChaletBackend, cache ChaletCache) *ChaletService {
	return &ChaletService{backend: backend, cache: cache}
}

func validateChalet(in *models.ChaletInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return fmt.Errorf("%w: chalet name is required", ErrInvalidInput)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
// Accented Latin letters are folded to their base letter.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = accentFolder.Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var accentFolder = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a", "á", "a",
	"ç", "c",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"î", "i", "ï", "i", "í", "i",
	"ô", "o", "ö", "o", "ó", "o",
	"ù", "u", "û", "u", "ü", "u", "ú", "u",
	"ÿ", "y", "ñ", "n", "œ", "oe", "æ", "ae",
)

// validatePage checks a page input. A missing slug is derived from the title.
// A given slug is normalized only when normalizeSlug is set: on update it is
// the backend's and is part of already printed QR code URLs.
func validatePage(in *models.PageInput, normalizeSlug bool) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return fmt.Errorf("%w: page title is required", ErrInvalidInput)
	}
	if in.Chalet == "" {
		return fmt.Errorf("%w: page chalet is required", ErrInvalidInput)
	}
	switch {
	case in.Slug == "":
		in.Slug = Slugify(in.Title)
	case normalizeSlug:
		in.Slug = Slugify(in.Slug)
	}
	if strings.TrimSpace(in.Slug) == "" {
		return fmt.Errorf("%w: page slug is empty", ErrInvalidInput)
	}
	return nil
}

// CreateChalet creates a chalet and caches it.
func (s *ChaletService) CreateChalet(ctx context.Context, in models.ChaletInput) (*models.Chalet, error) {
	if err := validateChalet(&in); err != nil {
		return nil, err
	}
	c, err := s.backend.CreateChalet(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create chalet: %w", err)
	}
	s.cache.AddChalet(*c)
	return c, nil
}

// UpdateChalet updates a chalet and refreshes the cached copy.
func (s *ChaletService) UpdateChalet(ctx context.Context, id string, in models.ChaletInput) (*models.Chalet, error) {
	if err := validateChalet(&in); err != nil {
		return nil, err
	}
	c, err := s.backend.UpdateChalet(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update chalet %s: %w", id, err)
	}
	s.cache.UpdateChalet(*c)
	return c, nil
}

// DeleteChalet deletes a chalet; the cache drops it together with its pages.
func (s *ChaletService) DeleteChalet(ctx context.Context, id string) error {
	if err := s.backend.DeleteChalet(ctx, id); err != nil {
		return fmt.Errorf("delete chalet %s: %w", id, err)
	}
	s.cache.RemoveChalet(id)
	return nil
}

// CreatePage creates a page and caches it.
func (s *ChaletService) CreatePage(ctx context.Context, in models.PageInput) (*models.Page, error) {
	if err := validatePage(&in, true); err != nil {
		return nil, err
	}
	p, err := s.backend.CreatePage(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	s.cache.AddPage(*p)
	return p, nil
}

// UpdatePage updates a page and refreshes the cached copy. A non-empty slug
// is sent as given; callers renaming a slug pass it through Slugify.
func (s *ChaletService) UpdatePage(ctx context.Context, id string, in models.PageInput) (*models.Page, error) {
	if err := validatePage(&in, false); err != nil {
		return nil, err
	}
	p, err := s.backend.UpdatePage(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update page %s: %w", id, err)
	}
	s.cache.UpdatePage(*p)
	return p, nil
}

// DeletePage deletes a page and drops it from the cache.
func (s *ChaletService) DeletePage(ctx context.Context, id string) error {
	if err := s.backend.DeletePage(ctx, id); err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}
	s.cache.RemovePage(id)
	return nil
}
