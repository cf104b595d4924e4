// Package catalog is the quote-browsing surface: listing with category and
// keyword filters, submission and moderation. Filtering and text search are
// delegated to the backend; this layer only validates input and shapes the
// display join for the favorites page.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"quotedeck/internal/backend"
)

const (
	maxQuoteLen  = 1000
	maxAuthorLen = 120
)

type Catalog struct {
	backend backend.Backend
}

func New(b backend.Backend) *Catalog {
	return &Catalog{backend: b}
}

func (c *Catalog) List(ctx context.Context, category, search string, limit int) ([]backend.Quote, error) {
	return c.backend.ListQuotes(ctx, backend.QuoteFilter{
		Category: strings.TrimSpace(category),
		Search:   strings.TrimSpace(search),
		Limit:    limit,
	})
}

func (c *Catalog) Get(ctx context.Context, id int64) (*backend.Quote, error) {
	return c.backend.GetQuote(ctx, id)
}

func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	return c.backend.ListCategories(ctx)
}

func (c *Catalog) Submit(ctx context.Context, q backend.NewQuote) (*backend.Quote, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Author = strings.TrimSpace(q.Author)
	q.Category = strings.TrimSpace(q.Category)

	if q.Text == "" {
		return nil, fmt.Errorf("quote text is required")
	}
	if len(q.Text) > maxQuoteLen {
		return nil, fmt.Errorf("quote text exceeds %d characters", maxQuoteLen)
	}
	if q.Author == "" {
		q.Author = "Anonymous"
	}
	if len(q.Author) > maxAuthorLen {
		return nil, fmt.Errorf("author exceeds %d characters", maxAuthorLen)
	}

	return c.backend.SubmitQuote(ctx, q)
}

func (c *Catalog) Pending(ctx context.Context) ([]backend.Quote, error) {
	return c.backend.ListPending(ctx)
}

func (c *Catalog) Approve(ctx context.Context, id int64) error {
	return c.backend.ApproveQuote(ctx, id)
}

func (c *Catalog) Reject(ctx context.Context, id int64) error {
	return c.backend.DeleteQuote(ctx, id)
}

// FavoriteView is a favorites-page row: the id always, the summary when the
// catalog can still supply it (it may not be reachable while degraded).
type FavoriteView struct {
	QuoteID int64          `json:"quote_id"`
	Quote   *backend.Quote `json:"quote,omitempty"`
}

// JoinFavorites resolves favorite ids to display summaries best-effort:
// lookup failures leave the row id-only instead of failing the page.
func (c *Catalog) JoinFavorites(ctx context.Context, ids []int64) []FavoriteView {
	views := make([]FavoriteView, 0, len(ids))
	for _, id := range ids {
		view := FavoriteView{QuoteID: id}
		if q, err := c.backend.GetQuote(ctx, id); err == nil {
			view.Quote = q
		}
		views = append(views, view)
	}
	return views
}
