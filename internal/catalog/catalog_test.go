package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"quotedeck/internal/backend"
)

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	c := New(backend.NewMock(backend.Seed{}))

	_, err := c.Submit(ctx, backend.NewQuote{Text: "   "})
	require.Error(t, err)

	_, err = c.Submit(ctx, backend.NewQuote{Text: strings.Repeat("x", 1001)})
	require.Error(t, err)

	created, err := c.Submit(ctx, backend.NewQuote{Text: "  a fine quote  "})
	require.NoError(t, err)
	require.Equal(t, "a fine quote", created.Text)
	require.Equal(t, "Anonymous", created.Author)
}

func TestJoinFavoritesBestEffort(t *testing.T) {
	ctx := context.Background()
	c := New(backend.NewMock(backend.DefaultSeed()))

	// 9999 references nothing; the row stays id-only instead of failing.
	views := c.JoinFavorites(ctx, []int64{1, 9999})
	require.Len(t, views, 2)
	require.NotNil(t, views[0].Quote)
	require.Equal(t, int64(1), views[0].Quote.ID)
	require.Nil(t, views[1].Quote)
	require.Equal(t, int64(9999), views[1].QuoteID)
}

func TestListPassesFiltersThrough(t *testing.T) {
	ctx := context.Background()
	c := New(backend.NewMock(backend.DefaultSeed()))

	quotes, err := c.List(ctx, " wisdom ", "", 1)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.Equal(t, "wisdom", quotes[0].Category)
}
