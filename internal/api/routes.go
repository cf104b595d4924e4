// Package api is the localhost HTTP surface consumed by the quote-browser
// UI: catalog reads, submission, moderation, favorite toggles and the sync
// status/reconnect controls.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"quotedeck/internal/backend"
	"quotedeck/internal/catalog"
	"quotedeck/internal/config"
	"quotedeck/internal/favorites"
	"quotedeck/internal/identity"
	"quotedeck/internal/logger"
)

type Handler struct {
	catalog  *catalog.Catalog
	syncer   *favorites.Synchronizer
	identity *identity.Provider
	cfg      config.ServerConfig
}

func NewHandler(c *catalog.Catalog, s *favorites.Synchronizer, id *identity.Provider, cfg config.ServerConfig) *Handler {
	return &Handler{
		catalog:  c,
		syncer:   s,
		identity: id,
		cfg:      cfg,
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(h.corsMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/quotes", h.ListQuotes)
		r.Post("/quotes", h.SubmitQuote)
		r.Get("/quotes/{id}", h.GetQuote)
		r.Get("/categories", h.ListCategories)

		r.Get("/favorites", h.ListFavorites)
		r.Get("/favorites/{id}", h.IsFavorited)
		r.Post("/favorites/{id}/toggle", h.ToggleFavorite)

		r.Get("/sync/status", h.SyncStatus)
		r.Post("/sync/reconnect", h.Reconnect)

		r.Route("/moderation", func(r chi.Router) {
			r.Use(h.authMiddleware)
			r.Get("/pending", h.ListPending)
			r.Post("/{id}/approve", h.ApproveQuote)
			r.Delete("/{id}", h.RejectQuote)
		})
	})

	return r
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) ListQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	quotes, err := h.catalog.List(r.Context(), r.URL.Query().Get("category"), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	if quotes == nil {
		// Empty lists stay JSON arrays on the wire, never null.
		quotes = []backend.Quote{}
	}
	h.writeJSON(w, http.StatusOK, quotes)
}

func (h *Handler) GetQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	quote, err := h.catalog.Get(r.Context(), id)
	if errors.Is(err, backend.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quote)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	var nq backend.NewQuote
	if err := json.NewDecoder(r.Body).Decode(&nq); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	quote, err := h.catalog.Submit(r.Context(), nq)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, quote)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.catalog.Pending(r.Context())
	if err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	if quotes == nil {
		quotes = []backend.Quote{}
	}
	h.writeJSON(w, http.StatusOK, quotes)
}

func (h *Handler) ApproveQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Approve(r.Context(), id); err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Reject(r.Context(), id); err != nil {
		h.writeError(w, http.StatusBadGateway, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	favorited, err := h.syncer.Toggle(r.Context(), h.principal(r), id)
	if errors.Is(err, favorites.ErrToggleInFlight) {
		h.writeError(w, http.StatusConflict, err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"quote_id":  id,
		"favorited": favorited,
		"degraded":  h.syncer.Status().Degraded,
	})
}

func (h *Handler) IsFavorited(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	favorited, err := h.syncer.IsFavorited(r.Context(), h.principal(r), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"quote_id": id, "favorited": favorited})
}

func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ids, err := h.syncer.ListIDs(r.Context(), h.principal(r))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.catalog.JoinFavorites(r.Context(), ids))
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.syncer.Status())
}

func (h *Handler) Reconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.Reconnect(r.Context(), h.principal(r)); err != nil {
		// Still degraded; the client shows "unable to sync, retry later".
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"reconnected": false,
			"error":       err.Error(),
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"reconnected": true,
		"status":      h.syncer.Status(),
	})
}

// principal resolves the favoriting identity: an authenticated id forwarded
// by the UI, otherwise the persisted anonymous one.
func (h *Handler) principal(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Principal-Id")); id != "" {
		return id
	}
	return h.identity.GetOrCreate()
}

func (h *Handler) quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid quote id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("Failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h *Handler) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(h.cfg.CorsOrigins) > 0 {
			origin = strings.Join(h.cfg.CorsOrigins, ", ")
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Principal-Id")

		if r.Method == http.MethodOptions {
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware guards moderation. With no token configured the instance
// is treated as a trusted local profile and moderation stays open.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.AuthToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != h.cfg.AuthToken {
			h.writeError(w, http.StatusUnauthorized, errors.New("invalid or missing token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
