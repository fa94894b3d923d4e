package models

import (
	"encoding/json"
	"time"
)

// Chalet is a rental property record organizing a set of content pages.
type Chalet struct {
	// ID is the backend identifier of the chalet.
	ID string `json:"id"`
	// Name is the display name of the chalet.
	Name string `json:"name"`
	// Description is an optional free-form text.
	Description string `json:"description,omitempty"`
	// CreatedAt is set by the backend on creation.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is set by the backend on every write.
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON accepts "_id" as an alias of "id".
func (c *Chalet) UnmarshalJSON(data []byte) error {
	type alias Chalet
	aux := struct {
		*alias
		DocumentID string `json:"_id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.DocumentID
	}
	return nil
}

// ChaletInput carries the writable fields of a chalet.
type ChaletInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
