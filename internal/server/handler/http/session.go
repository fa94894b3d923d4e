package http

import (
	"net/http"
)

// SessionHandler serves the endpoints the proxy answers itself.
type SessionHandler struct {
	// CookieName is the session cookie; DefaultCookieName when empty.
	CookieName string
	// Secure marks the expiring cookie Secure (set when serving TLS).
	Secure bool
}

// Logout expires the session cookie in the caller's browser. The backend
// session is ended separately through the proxy.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	name := h.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Health reports that the proxy is up. It does not contact the backend.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
