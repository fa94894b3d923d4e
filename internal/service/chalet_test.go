package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrchalets/chalets/internal/client/store"
	"github.com/qrchalets/chalets/internal/models"
	"github.com/qrchalets/chalets/internal/service"
)

type mockBackend struct {
	CreateChaletFunc func(ctx context.Context, in models.ChaletInput) (*models.Chalet, error)
	UpdateChaletFunc func(ctx context.Context, id string, in models.ChaletInput) (*models.Chalet, error)
	DeleteChaletFunc func(ctx context.Context, id string) error
	CreatePageFunc   func(ctx context.Context, in models.PageInput) (*models.Page, error)
	UpdatePageFunc   func(ctx context.Context, id string, in models.PageInput) (*models.Page, error)
	DeletePageFunc   func(ctx context.Context, id string) error
}

func (m *mockBackend) CreateChalet(ctx context.Context, in models.ChaletInput) (*models.Chalet, error) {
	return m.CreateChaletFunc(ctx, in)
}
func (m *mockBackend) UpdateChalet(ctx context.Context, id string, in models.ChaletInput) (*models.Chalet, error) {
	return m.UpdateChaletFunc(ctx, id, in)
}
func (m *mockBackend) DeleteChalet(ctx context.Context, id string) error {
	return m.DeleteChaletFunc(ctx, id)
}
func (m *mockBackend) CreatePage(ctx context.Context, in models.PageInput) (*models.Page, error) {
	return m.CreatePageFunc(ctx, in)
}
func (m *mockBackend) UpdatePage(ctx context.Context, id string, in models.PageInput) (*models.Page, error) {
	return m.UpdatePageFunc(ctx, id, in)
}
func (m *mockBackend) DeletePage(ctx context.Context, id string) error {
	return m.DeletePageFunc(ctx, id)
}

func seededStore() *store.Store {
	s := store.New(nil, nil, nil)
	s.AddChalet(models.Chalet{ID: "c1", Name: "Père Sapin"})
	s.AddPage(models.Page{ID: "p1", Slug: "wifi", Chalet: "c1"})
	s.AddPage(models.Page{ID: "p2", Slug: "sauna", Chalet: "c1"})
	return s
}

func TestCreateChalet_MirrorsIntoCache(t *testing.T) {
	cache := store.New(nil, nil, nil)
	backend := &mockBackend{
		CreateChaletFunc: func(ctx context.Context, in models.ChaletInput) (*models.Chalet, error) {
			assert.Equal(t, "Edelweiss", in.Name)
			return &models.Chalet{ID: "c9", Name: in.Name}, nil
		},
	}
	svc := service.NewChaletService(backend, cache)

	c, err := svc.CreateChalet(context.Background(), models.ChaletInput{Name: " Edelweiss "})
	require.NoError(t, err)
	assert.Equal(t, "c9", c.ID)

	cached, ok := cache.Chalet("c9")
	require.True(t, ok)
	assert.Equal(t, "Edelweiss", cached.Name)
}

func TestCreateChalet_Validation(t *testing.T) {
	svc := service.NewChaletService(&mockBackend{}, store.New(nil, nil, nil))
	_, err := svc.CreateChalet(context.Background(), models.ChaletInput{Name: "  "})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestFailedWritesLeaveCacheUnchanged(t *testing.T) {
	boom := errors.New("backend down")
	backend := &mockBackend{
		UpdateChaletFunc: func(context.Context, string, models.ChaletInput) (*models.Chalet, error) { return nil, boom },
		DeleteChaletFunc: func(context.Context, string) error { return boom },
		CreatePageFunc:   func(context.Context, models.PageInput) (*models.Page, error) { return nil, boom },
		UpdatePageFunc:   func(context.Context, string, models.PageInput) (*models.Page, error) { return nil, boom },
		DeletePageFunc:   func(context.Context, string) error { return boom },
	}
	cache := seededStore()
	svc := service.NewChaletService(backend, cache)
	ctx := context.Background()

	_, err := svc.UpdateChalet(ctx, "c1", models.ChaletInput{Name: "renamed"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.DeleteChalet(ctx, "c1"), boom)
	_, err = svc.CreatePage(ctx, models.PageInput{Title: "Ski", Chalet: "c1"})
	assert.ErrorIs(t, err, boom)
	_, err = svc.UpdatePage(ctx, "p1", models.PageInput{Title: "Wifi", Chalet: "c1"})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.DeletePage(ctx, "p1"), boom)

	c, _ := cache.Chalet("c1")
	assert.Equal(t, "Père Sapin", c.Name)
	assert.Len(t, cache.Pages(), 2)
}

func TestDeleteChalet_CascadesInCache(t *testing.T) {
	var deleted string
	backend := &mockBackend{
		DeleteChaletFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	cache := seededStore()
	cache.AddPage(models.Page{ID: "p3", Chalet: "c2"})
	svc := service.NewChaletService(backend, cache)

	require.NoError(t, svc.DeleteChalet(context.Background(), "c1"))
	assert.Equal(t, "c1", deleted)
	assert.Empty(t, cache.Chalets())

	left := cache.Pages()
	require.Len(t, left, 1)
	assert.Equal(t, "p3", left[0].ID)
}

func TestCreatePage_SlugFromTitle(t *testing.T) {
	backend := &mockBackend{
		CreatePageFunc: func(_ context.Context, in models.PageInput) (*models.Page, error) {
			return &models.Page{ID: "p7", Title: in.Title, Slug: in.Slug, Chalet: models.ChaletRef(in.Chalet)}, nil
		},
	}
	cache := seededStore()
	svc := service.NewChaletService(backend, cache)

	p, err := svc.CreatePage(context.Background(), models.PageInput{Title: "Règles de la Maison", Chalet: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "regles-de-la-maison", p.Slug)
	assert.Equal(t, 3, cache.PageCount("c1"))
}

func TestUpdatePage_ReplacesCachedCopy(t *testing.T) {
	backend := &mockBackend{
		UpdatePageFunc: func(_ context.Context, id string, in models.PageInput) (*models.Page, error) {
			return &models.Page{ID: id, Title: in.Title, Slug: in.Slug, Chalet: "c1"}, nil
		},
	}
	cache := seededStore()
	svc := service.NewChaletService(backend, cache)

	_, err := svc.UpdatePage(context.Background(), "p1", models.PageInput{Title: "Wi-Fi", Slug: "wifi", Chalet: "c1"})
	require.NoError(t, err)

	p, ok := cache.Page("p1")
	require.True(t, ok)
	assert.Equal(t, "Wi-Fi", p.Title)
	assert.Equal(t, "wifi", p.Slug)
}

func TestUpdatePage_KeepsExistingSlug(t *testing.T) {
	var sent []string
	backend := &mockBackend{
		UpdatePageFunc: func(_ context.Context, id string, in models.PageInput) (*models.Page, error) {
			sent = append(sent, in.Slug)
			return &models.Page{ID: id, Title: in.Title, Slug: in.Slug, Chalet: "c1"}, nil
		},
	}
	svc := service.NewChaletService(backend, seededStore())
	off := false

	tests := []struct {
		name string
		in   models.PageInput
		want string
	}{
		{"backend slug untouched", models.PageInput{Title: "Wifi", Slug: "Wifi_Code", Chalet: "c1", IsActive: &off}, "Wifi_Code"},
		{"missing slug derived", models.PageInput{Title: "Règles du chalet", Chalet: "c1"}, "regles-du-chalet"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sent = nil
			p, err := svc.UpdatePage(context.Background(), "p1", tc.in)
			require.NoError(t, err)
			assert.Equal(t, []string{tc.want}, sent)
			assert.Equal(t, tc.want, p.Slug)
		})
	}
}

func TestCreatePage_Validation(t *testing.T) {
	svc := service.NewChaletService(&mockBackend{}, store.New(nil, nil, nil))
	tests := []struct {
		name string
		in   models.PageInput
	}{
		{"no title", models.PageInput{Chalet: "c1"}},
		{"no chalet", models.PageInput{Title: "Wifi"}},
		{"empty slug", models.PageInput{Title: "Wifi", Slug: "!!!", Chalet: "c1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePage(context.Background(), tt.in)
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Père Sapin":         "pere-sapin",
		"  Check-in / Out  ": "check-in-out",
		"Œuvre & Ski":        "oeuvre-ski",
		"---":                "",
	}
	for in, want := range tests {
		assert.Equal(t, want, service.Slugify(in), in)
	}
}
