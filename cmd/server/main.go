// Package main starts the chalets proxy: it reads configuration, sets up
// logging and serves the authenticated reverse proxy to the backend.
package main

import (
	"cmp"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	nethttp "net/http"

	"github.com/qrchalets/chalets/internal/config"
	"github.com/qrchalets/chalets/internal/logger"
	"github.com/qrchalets/chalets/internal/server/handler/http"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Backend origin and the rest are read once, here.
	options := config.Parse()
	addr := options.Port

	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if err := options.Validate(); err != nil {
		zapLogger.Fatal("invalid configuration", zap.Error(err))
	}

	proxyHandler := &http.ProxyHandler{
		BackendURL: options.BackendURL,
		Client:     &nethttp.Client{},
		CookieName: options.CookieName,
		Logger:     zapLogger,
	}
	sessionHandler := &http.SessionHandler{
		CookieName: options.CookieName,
		Secure:     options.TLSEnabled(),
	}

	router := http.NewRouter(proxyHandler, sessionHandler, zapLogger)

	server := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var err error
	if options.TLSEnabled() {
		server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		zapLogger.Info("starting HTTPS server",
			zap.String("addr", addr),
			zap.String("backend", options.BackendURL),
		)
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server",
			zap.String("addr", addr),
			zap.String("backend", options.BackendURL),
		)
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
}
