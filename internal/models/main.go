// Package models defines the core data structures shared by the proxy,
// the admin client and its local cache: chalets, pages and users.
package models

// User represents the authenticated administrator as returned by the backend.
type User struct {
	// ID is the backend identifier of the user.
	ID string `json:"id"`
	// Email is the login of the user.
	Email string `json:"email"`
	// Name is the display name.
	Name string `json:"name,omitempty"`
	// Role is the backend role ("admin", "editor", ...).
	Role string `json:"role,omitempty"`
}

// Credentials is the login payload sent to the backend.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
