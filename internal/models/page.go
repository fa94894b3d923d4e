package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ChaletRef is the identifier of the chalet a page belongs to.
//
// The backend sends it either as a plain id string or as the embedded chalet
// document. Both forms decode to the id; it always encodes as a string.
type ChaletRef string

// UnmarshalJSON decodes a string id, an embedded chalet object or null.
func (r *ChaletRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*r = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ChaletRef(id)
		return nil
	case len(data) > 0 && data[0] == '{':
		var obj struct {
			ID         string `json:"id"`
			DocumentID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.ID != "" {
			*r = ChaletRef(obj.ID)
		} else {
			*r = ChaletRef(obj.DocumentID)
		}
		return nil
	default:
		return fmt.Errorf("chalet reference: unexpected JSON %s", data)
	}
}

// String returns the referenced chalet id.
func (r ChaletRef) String() string { return string(r) }

// Page is a content document attached to a chalet and exposed publicly
// through its slug and QR code.
type Page struct {
	// ID is the backend identifier of the page.
	ID string `json:"id"`
	// Title is the page heading.
	Title string `json:"title"`
	// Content is the serialized rich-text editor document. It is opaque here.
	Content json.RawMessage `json:"content,omitempty"`
	// Slug is the public path segment, intended unique within a chalet.
	Slug string `json:"slug"`
	// Tags are free-form labels.
	Tags []string `json:"tags,omitempty"`
	// Chalet references the owning chalet.
	Chalet ChaletRef `json:"chalet"`
	// Views counts public visits.
	Views int64 `json:"views"`
	// IsActive reports whether the page is publicly reachable.
	IsActive bool `json:"isActive"`
	// CreatedAt is set by the backend on creation.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is set by the backend on every write.
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts "_id" as an alias of "id".
func (p *Page) UnmarshalJSON(data []byte) error {
	type alias Page
	aux := struct {
		*alias
		DocumentID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.DocumentID
	}
	return nil
}

// BelongsTo reports whether the page references the given chalet.
func (p *Page) BelongsTo(chaletID string) bool {
	return chaletID != "" && p.Chalet.String() == chaletID
}

// PageInput carries the writable fields of a page.
type PageInput struct {
	Title    string          `json:"title"`
	Content  json.RawMessage `json:"content,omitempty"`
	Slug     string          `json:"slug"`
	Tags     []string        `json:"tags,omitempty"`
	Chalet   string          `json:"chalet"`
	IsActive *bool           `json:"isActive,omitempty"`
}
