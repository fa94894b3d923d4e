package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handler "github.com/qrchalets/chalets/internal/server/handler/http"
)

// fakeBackend serves the subset of the backend API the commands use and
// requires the session cookie everywhere except login.
type fakeBackend struct {
	chaletCalls atomic.Int32
	created     map[string]any
	updated     map[string]any
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/auth/login" {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "auth_token", Value: "tok-1", Path: "/", HttpOnly: true})
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"admin@example.com","name":"Père Sapin","role":"admin"}}`))
		return
	}
	if ck, err := r.Cookie("auth_token"); err != nil || ck.Value != "tok-1" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized"}`))
		return
	}

	switch r.Method + " " + r.URL.Path {
	case "GET /chalets":
		b.chaletCalls.Add(1)
		_, _ = w.Write([]byte(`[{"_id":"c1","name":"Le Sapin"},{"_id":"c2","name":"La Cabane"}]`))
	case "GET /pages":
		_, _ = w.Write([]byte(`[
			{"_id":"p1","title":"Wifi","slug":"Wifi_Code","chalet":"c1","isActive":true},
			{"_id":"p2","title":"Check-out","slug":"check-out","chalet":{"_id":"c1","name":"Le Sapin"}},
			{"_id":"p3","title":"Ski","slug":"ski","chalet":"c2"}
		]`))
	case "POST /pages":
		_ = json.NewDecoder(r.Body).Decode(&b.created)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"p9","title":"Règles","slug":"regles-du-chalet","chalet":"c2"}`))
	case "PUT /pages/p1":
		_ = json.NewDecoder(r.Body).Decode(&b.updated)
		slug, _ := b.updated["slug"].(string)
		_, _ = w.Write([]byte(`{"_id":"p1","title":"Wifi","slug":"` + slug + `","chalet":"c1","isActive":false}`))
	case "GET /pages/p1/qrcode":
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4\x00\xff"))
	case "POST /auth/logout":
		_, _ = w.Write([]byte(`{"success":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not found"}`))
	}
}

// newStack starts the backend behind a real proxy and returns the proxy's
// API base URL.
func newStack(t *testing.T) (string, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{}
	backendSrv := httptest.NewServer(backend)
	t.Cleanup(backendSrv.Close)

	proxy := &handler.ProxyHandler{BackendURL: backendSrv.URL, Logger: zap.NewNop()}
	proxySrv := httptest.NewServer(handler.NewRouter(proxy, &handler.SessionHandler{}, zap.NewNop()))
	t.Cleanup(proxySrv.Close)

	return proxySrv.URL + "/api/proxy", backend
}

// resetFlags restores every flag to its default so runs do not leak into
// each other through the package-level flag variables.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, url, store, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(append([]string{"--url", url, "--store", store, "--log-level", "error"}, args...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.ExecuteContext(context.Background())
	if app != nil {
		app.shutdown()
		app = nil
	}
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	url, backend := newStack(t)
	store := filepath.Join(t.TempDir(), "store.json")

	_, err := run(t, url, store, "", "chalets", "list")
	require.Error(t, err, "listing without a session must fail")

	out, err := run(t, url, store, "admin@example.com\npw\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as Père Sapin")

	out, err = run(t, url, store, "", "chalets", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^c1\s+Le Sapin\s+2$`, lines[1])
	assert.Regexp(t, `^c2\s+La Cabane\s+1$`, lines[2])

	// served from the persisted cache
	out, err = run(t, url, store, "", "pages", "list", "--chalet", "c1")
	require.NoError(t, err)
	assert.Contains(t, out, "Wifi_Code")
	assert.Contains(t, out, "check-out")
	assert.NotContains(t, out, "ski")
	assert.Equal(t, int32(1), backend.chaletCalls.Load())

	out, err = run(t, url, store, "", "pages", "update", "p1", "--active=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated page p1 /Wifi_Code")
	assert.Equal(t, "Wifi_Code", backend.updated["slug"])
	assert.Equal(t, false, backend.updated["isActive"])

	out, err = run(t, url, store, "", "pages", "create", "--chalet", "c2", "--title", "Règles du chalet", "--content", `{"blocks":[]}`)
	require.NoError(t, err)
	assert.Contains(t, out, "Created page p9")
	assert.Equal(t, "regles-du-chalet", backend.created["slug"])
	assert.Equal(t, "c2", backend.created["chalet"])

	pdfPath := filepath.Join(t.TempDir(), "wifi.pdf")
	_, err = run(t, url, store, "", "qrcode", "p1", "-o", pdfPath)
	require.NoError(t, err)
	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4\x00\xff"), pdf)

	out, err = run(t, url, store, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out")

	_, err = run(t, url, store, "", "whoami")
	assert.Error(t, err)
}

func TestLogin_WrongPassword(t *testing.T) {
	url, _ := newStack(t)
	store := filepath.Join(t.TempDir(), "store.json")

	_, err := run(t, url, store, "", "login", "--email", "admin@example.com", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	for _, location := range []string{
		filepath.Join(dir, "nested", "store.json"),
		"sqlite://" + filepath.Join(dir, "store.db"),
	} {
		t.Run(location, func(t *testing.T) {
			st, closeFn, err := openStorage(ctx, location, zap.NewNop())
			require.NoError(t, err)
			defer closeFn()

			require.NoError(t, st.SetItem(ctx, "k", []byte(`{"v":1}`)))
			got, err := st.GetItem(ctx, "k")
			require.NoError(t, err)
			assert.JSONEq(t, `{"v":1}`, string(got))
		})
	}
}
