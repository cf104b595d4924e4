// Package backend is the thin client layer over the hosted data service.
// Persistence, auth and text search all live on the remote side; this
// package only projects its row-level CRUD, the favorite RPC procedures and
// a connectivity probe onto Go types. A seeded in-memory Mock implements the
// same surface for offline demo and tests.
package backend

import (
	"context"
	"time"
)

type Quote struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags,omitempty"`
	Approved  bool      `json:"approved"`
	CreatedAt time.Time `json:"created_at"`
}

// NewQuote is a submission payload. Submitted quotes start unapproved.
type NewQuote struct {
	Text     string   `json:"text"`
	Author   string   `json:"author"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// QuoteFilter narrows ListQuotes. Search is passed through to the backend's
// text search verbatim; no ranking happens client-side.
type QuoteFilter struct {
	Category string
	Search   string
	Limit    int
}

// Backend is the full contract surface consumed from the hosted service.
// Exactly one implementation (Client or Mock) is selected at startup.
type Backend interface {
	ListQuotes(ctx context.Context, filter QuoteFilter) ([]Quote, error)
	GetQuote(ctx context.Context, id int64) (*Quote, error)
	ListCategories(ctx context.Context) ([]string, error)
	SubmitQuote(ctx context.Context, q NewQuote) (*Quote, error)

	ListPending(ctx context.Context) ([]Quote, error)
	ApproveQuote(ctx context.Context, id int64) error
	DeleteQuote(ctx context.Context, id int64) error

	AddFavorite(ctx context.Context, userID string, quoteID int64) error
	RemoveFavorite(ctx context.Context, userID string, quoteID int64) error
	IsFavorited(ctx context.Context, userID string, quoteID int64) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]Quote, error)

	// Probe is a lightweight connectivity check used before reconciliation.
	Probe(ctx context.Context) error
}
