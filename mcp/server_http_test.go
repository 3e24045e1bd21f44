package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/components-radar/config"
	"github.com/lukman83/components-radar/internal/api"
	"github.com/lukman83/components-radar/internal/app"
	"github.com/lukman83/components-radar/internal/search"
	"github.com/lukman83/components-radar/internal/storage"
)

type emptySearcher struct{}

func (emptySearcher) Search(context.Context, search.Query) (*search.Page, error) {
	return &search.Page{}, nil
}

func newTestApp(t *testing.T) *app.App {
	return newTestAppWith(t, emptySearcher{})
}

func newTestAppWith(t *testing.T, searcher search.Searcher) *app.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage = "memory"
	cfg.GateThreshold = 100
	client := api.NewWithHTTPClient("http://127.0.0.1:1", http.DefaultClient, zerolog.Nop())
	a, err := app.NewWithDeps(context.Background(), cfg, storage.NewMemoryStore(), searcher, client, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestHealthzIsOpen(t *testing.T) {
	srv := httptest.NewServer(Handler(newTestApp(t), "secret", nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	h := Handler(newTestApp(t), "secret", []string{"https://radar.example"})

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://radar.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://radar.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := bearerAuth("secret", next)

	cases := map[string]int{
		"":              http.StatusUnauthorized,
		"Bearer wrong":  http.StatusUnauthorized,
		"Basic secret":  http.StatusUnauthorized,
		"Bearer secret": http.StatusNoContent,
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, header)
	}
}
