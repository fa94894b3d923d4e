package http

import (
	"net/http"

	"github.com/qrchalets/chalets/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs the HTTP handler of the chalets proxy.
//
// Routes:
//
//	GET  /healthz           → Health
//	POST /api/auth/logout   → session.Logout
//	*    /api/proxy/*       → proxy (GET, POST, PUT, PATCH, DELETE)
//
// Middleware chain (applied in order):
//  1. Recoverer
//  2. RequestID (X-Request-ID)
//  3. WithRequestLogging
//  4. SessionCookie
func NewRouter(
	proxy *ProxyHandler,
	session *SessionHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.SessionCookie(proxy.cookieName()))

	r.Get("/healthz", Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/logout", session.Logout)

		for _, m := range ProxyMethods {
			r.Method(m, "/proxy/*", proxy)
		}
	})

	return r
}
