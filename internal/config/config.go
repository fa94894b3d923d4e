// Package config provides functionality for managing configuration options
// for the proxy server using command-line flags, environment variables and an
// optional JSON config file.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
)

// ErrMissingBackendURL is returned when no backend origin is configured.
var ErrMissingBackendURL = errors.New("BACKEND_URL is not set")

// Options holds the configuration values for the proxy server.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// BackendURL is the origin every proxied request is sent to.
	BackendURL string `json:"backend_url"`

	// CookieName is the backend's session cookie.
	CookieName string `json:"auth_cookie"`

	// LogLevel is a zap level name (debug, info, warn, error).
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// TLSEnabled reports whether a certificate and key are configured.
func (o *Options) TLSEnabled() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

// Validate checks that the options can start a server.
func (o *Options) Validate() error {
	if o.BackendURL == "" {
		return ErrMissingBackendURL
	}
	u, err := url.Parse(o.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL %q: want http(s)://host", o.BackendURL)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return errors.New("tls cert and key must be set together")
	}
	return nil
}

// Parse parses the process's command-line flags and environment variables
// and exits on error.
func Parse() *Options {
	options, err := Load(flag.CommandLine, os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return options
}

// Load registers the flags on fs, parses args and applies, in order, the
// JSON config file and the environment. Environment variables win.
func Load(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.BackendURL, "b", "", "backend origin")
	fs.StringVar(&options.CookieName, "cookie", "auth_token", "session cookie name")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "path to TLS certificate")
	fs.StringVar(&options.TLSKey, "tls-key", "", "path to TLS key")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	for env, dst := range map[string]*string{
		"SERVER_ADDRESS": &options.Port,
		"BACKEND_URL":    &options.BackendURL,
		"AUTH_COOKIE":    &options.CookieName,
		"LOG_LEVEL":      &options.LogLevel,
		"TLS_CERT":       &options.TLSCert,
		"TLS_KEY":        &options.TLSKey,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}

	return options, nil
}
