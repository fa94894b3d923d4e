package api

import (
	"context"
	"io"
	"net/http"

	"github.com/qrchalets/chalets/internal/models"
)

// ListChalets returns every chalet.
func (c *Client) ListChalets(ctx context.Context) ([]models.Chalet, error) {
	var out []models.Chalet
	if err := c.doJSON(ctx, http.MethodGet, "/chalets", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateChalet creates a chalet and returns the stored record.
func (c *Client) CreateChalet(ctx context.Context, in models.ChaletInput) (*models.Chalet, error) {
	var out models.Chalet
	if err := c.doJSON(ctx, http.MethodPost, "/chalets", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateChalet replaces the writable fields of chalet id.
func (c *Client) UpdateChalet(ctx context.Context, id string, in models.ChaletInput) (*models.Chalet, error) {
	var out models.Chalet
	if err := c.doJSON(ctx, http.MethodPut, "/chalets/"+escape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteChalet deletes chalet id. The backend cascades to its pages.
func (c *Client) DeleteChalet(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/chalets/"+escape(id), nil, nil)
}

// ListPages returns every page of every chalet.
func (c *Client) ListPages(ctx context.Context) ([]models.Page, error) {
	var out []models.Page
	if err := c.doJSON(ctx, http.MethodGet, "/pages", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreatePage creates a page and returns the stored record.
func (c *Client) CreatePage(ctx context.Context, in models.PageInput) (*models.Page, error) {
	var out models.Page
	if err := c.doJSON(ctx, http.MethodPost, "/pages", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePage replaces the writable fields of page id.
func (c *Client) UpdatePage(ctx context.Context, id string, in models.PageInput) (*models.Page, error) {
	var out models.Page
	if err := c.doJSON(ctx, http.MethodPut, "/pages/"+escape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePage deletes page id.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/pages/"+escape(id), nil, nil)
}

// PageQRCode downloads the printable QR code PDF of page id.
func (c *Client) PageQRCode(ctx context.Context, id string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/pages/"+escape(id)+"/qrcode", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
