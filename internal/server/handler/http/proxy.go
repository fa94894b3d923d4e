// Package http provides the HTTP surface of the chalets proxy: the
// authenticated reverse proxy to the backend and a few local endpoints.
package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/middleware"
)

// DefaultCookieName is the session cookie set by the backend on login.
const DefaultCookieName = "auth_token"

// ProxyMethods are the HTTP methods relayed to the backend.
var ProxyMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

// forwardedHeaders are the only request headers copied to the backend.
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// relayedHeaders are copied back to the caller in addition to Set-Cookie
// and Content-Type.
var relayedHeaders = []string{"Content-Disposition", "Cache-Control"}

// ProxyHandler relays requests received under a wildcard route to the
// backend, attaching the caller's session cookie.
type ProxyHandler struct {
	// BackendURL is the backend origin, e.g. "https://api.example.com".
	BackendURL string
	// Client performs the upstream request; http.DefaultClient when nil.
	Client *http.Client
	// CookieName is the session cookie; DefaultCookieName when empty.
	CookieName string
	// Logger records forwarding failures; no-op when nil.
	Logger *zap.Logger
}

func (h *ProxyHandler) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *ProxyHandler) cookieName() string {
	if h.CookieName != "" {
		return h.CookieName
	}
	return DefaultCookieName
}

func (h *ProxyHandler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

// ServeHTTP forwards the request once. Any failure before the backend
// response is relayed yields a 500 with a fixed JSON body.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.forward(w, r); err != nil {
		h.logger().Error("proxy request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// forward writes nothing to w unless it returns nil.
func (h *ProxyHandler) forward(w http.ResponseWriter, r *http.Request) error {
	target := h.targetURL(r)

	body, contentType, err := outgoingBody(r)
	if err != nil {
		return err
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			out.Header.Set(name, v)
		}
	}
	if contentType != "" {
		out.Header.Set("Content-Type", contentType)
	} else {
		out.Header.Del("Content-Type")
	}
	if token := h.sessionToken(r); token != "" {
		out.AddCookie(&http.Cookie{Name: h.cookieName(), Value: token})
	}

	resp, err := h.client().Do(out)
	if err != nil {
		return fmt.Errorf("backend request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read backend response: %w", err)
	}

	// binary (PDF, octet-stream) and text bodies are relayed byte for byte
	respType := resp.Header.Get("Content-Type")
	payload := raw
	if isJSON(respType) && len(bytes.TrimSpace(raw)) > 0 {
		if payload, err = reencodeJSON(raw); err != nil {
			return fmt.Errorf("decode backend JSON: %w", err)
		}
	}

	for _, c := range resp.Header.Values("Set-Cookie") {
		w.Header().Add("Set-Cookie", c)
	}
	for _, name := range relayedHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	if respType != "" {
		w.Header().Set("Content-Type", respType)
	}
	w.WriteHeader(resp.StatusCode)
	if len(payload) > 0 {
		_, _ = w.Write(payload)
	}
	return nil
}

func (h *ProxyHandler) targetURL(r *http.Request) string {
	target := strings.TrimRight(h.BackendURL, "/") + "/" + strings.TrimLeft(wildcardPath(r), "/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	return target
}

// wildcardPath returns the part of the path matched by the route's "*",
// still escaped. chi's URLParam is decoded, which would turn an encoded
// "?" or "#" inside a segment into a query or fragment upstream.
func wildcardPath(r *http.Request) string {
	escaped := r.URL.EscapedPath()
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		prefix, ok := strings.CutSuffix(rctx.RoutePattern(), "*")
		if rest, found := strings.CutPrefix(escaped, prefix); ok && found {
			return rest
		}
	}
	return (&url.URL{Path: chi.URLParam(r, "*")}).EscapedPath()
}

func (h *ProxyHandler) sessionToken(r *http.Request) string {
	if token := middleware.GetTokenFromContext(r.Context()); token != "" {
		return token
	}
	if ck, err := r.Cookie(h.cookieName()); err == nil {
		return ck.Value
	}
	return ""
}

// outgoingBody prepares the upstream body and the Content-Type it must be
// sent with.
func outgoingBody(r *http.Request) (io.Reader, string, error) {
	contentType := r.Header.Get("Content-Type")
	if r.Body == nil || r.Body == http.NoBody || r.Method == http.MethodGet {
		return nil, "", nil
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "multipart/form-data":
		return reencodeMultipart(r)
	case isJSON(contentType):
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		if len(bytes.TrimSpace(raw)) == 0 {
			return nil, contentType, nil
		}
		out, err := reencodeJSON(raw)
		if err != nil {
			return nil, "", fmt.Errorf("decode request JSON: %w", err)
		}
		return bytes.NewReader(out), contentType, nil
	default:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read request body: %w", err)
		}
		if len(raw) == 0 {
			return nil, contentType, nil
		}
		return bytes.NewReader(raw), contentType, nil
	}
}

// reencodeMultipart copies every part into a new multipart body. The
// returned Content-Type carries the new boundary; the caller's is dropped.
func reencodeMultipart(r *http.Request) (io.Reader, string, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", fmt.Errorf("read multipart body: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for {
		part, err := mr.NextRawPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", fmt.Errorf("read multipart part: %w", err)
		}
		dst, err := mw.CreatePart(part.Header)
		if err != nil {
			return nil, "", fmt.Errorf("write multipart part: %w", err)
		}
		if _, err := io.Copy(dst, part); err != nil {
			return nil, "", fmt.Errorf("copy multipart part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// reencodeJSON parses and re-serializes a JSON document. Numbers keep their
// literal form.
func reencodeJSON(raw []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
