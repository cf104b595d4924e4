package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quotedeck/internal/backend"
	"quotedeck/internal/catalog"
	"quotedeck/internal/config"
	"quotedeck/internal/favorites"
	"quotedeck/internal/identity"
	"quotedeck/internal/kv"
)

func newTestHandler(t *testing.T, cfg config.ServerConfig) (*Handler, *backend.Mock) {
	t.Helper()

	b := backend.NewMock(backend.DefaultSeed())
	local := favorites.NewLocalStore(kv.NewMemoryStore())
	syncer := favorites.NewSynchronizer(local, favorites.NewRemoteStore(b), b.Probe)
	ids := identity.NewProvider(t.TempDir())

	return NewHandler(catalog.New(b), syncer, ids, cfg), b
}

func doJSON(t *testing.T, h *Handler, method, path string, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestListQuotes(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes?category=wisdom", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var quotes []backend.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.NotEmpty(t, quotes)
	for _, q := range quotes {
		require.Equal(t, "wisdom", q.Category)
	}
}

func TestToggleAndListFavorites(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/favorites/1/toggle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["favorited"])
	require.Equal(t, false, body["degraded"])

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var views []catalog.FavoriteView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.Equal(t, int64(1), views[0].QuoteID)
	require.NotNil(t, views[0].Quote)

	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/favorites/1/toggle", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["favorited"])
}

func TestPrincipalHeaderScopesFavorites(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	_, body := doJSON(t, h, http.MethodPost, "/api/v1/favorites/1/toggle", "", map[string]string{"X-Principal-Id": "user-a"})
	require.Equal(t, true, body["favorited"])

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/favorites/1", "", map[string]string{"X-Principal-Id": "user-b"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["favorited"])
}

func TestSyncStatusAndReconnect(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec, body := doJSON(t, h, http.MethodGet, "/api/v1/sync/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, false, body["degraded"])

	// Reconnect while online is a successful no-op.
	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/sync/reconnect", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, body["reconnected"])
}

func TestSubmitQuote(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec, body := doJSON(t, h, http.MethodPost, "/api/v1/quotes",
		`{"text":"fresh quote","author":"tester","category":"misc"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "fresh quote", body["text"])
	require.Equal(t, false, body["approved"])

	rec, body = doJSON(t, h, http.MethodPost, "/api/v1/quotes", `{"text":""}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, body["error"], "required")
}

func TestModerationAuth(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{AuthToken: "secret"})

	rec, _ := doJSON(t, h, http.MethodGet, "/api/v1/moderation/pending", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/moderation/pending", "", map[string]string{"Authorization": "Bearer secret"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestModerationApprove(t *testing.T) {
	h, b := newTestHandler(t, config.ServerConfig{})

	// Seed has one unapproved quote (id 6).
	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/moderation/6/approve", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	q, err := b.GetQuote(context.Background(), 6)
	require.NoError(t, err)
	require.True(t, q.Approved)
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/quotes?q=no-such-quote-anywhere", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/favorites", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestInvalidQuoteID(t *testing.T) {
	h, _ := newTestHandler(t, config.ServerConfig{})

	rec, _ := doJSON(t, h, http.MethodPost, "/api/v1/favorites/abc/toggle", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
