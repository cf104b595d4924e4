package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockListFiltersApprovedAndCategory(t *testing.T) {
	ctx := context.Background()
	m := NewMock(DefaultSeed())

	all, err := m.ListQuotes(ctx, QuoteFilter{})
	require.NoError(t, err)
	for _, q := range all {
		require.True(t, q.Approved)
	}

	wisdom, err := m.ListQuotes(ctx, QuoteFilter{Category: "wisdom"})
	require.NoError(t, err)
	require.NotEmpty(t, wisdom)
	for _, q := range wisdom {
		require.Equal(t, "wisdom", q.Category)
	}

	// No matches is an empty slice, not nil.
	none, err := m.ListQuotes(ctx, QuoteFilter{Search: "zzz-no-match"})
	require.NoError(t, err)
	require.NotNil(t, none)
	require.Empty(t, none)
}

func TestMockSearchMatchesTextAuthorTags(t *testing.T) {
	ctx := context.Background()
	m := NewMock(DefaultSeed())

	byText, err := m.ListQuotes(ctx, QuoteFilter{Search: "simplicity"})
	require.NoError(t, err)
	require.Len(t, byText, 1)

	byAuthor, err := m.ListQuotes(ctx, QuoteFilter{Search: "einstein"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)

	byTag, err := m.ListQuotes(ctx, QuoteFilter{Search: "perseverance"})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
}

func TestMockSubmitModerationFlow(t *testing.T) {
	ctx := context.Background()
	m := NewMock(Seed{})

	created, err := m.SubmitQuote(ctx, NewQuote{Text: "new quote", Author: "someone", Category: "misc"})
	require.NoError(t, err)
	require.False(t, created.Approved)

	visible, err := m.ListQuotes(ctx, QuoteFilter{})
	require.NoError(t, err)
	require.Empty(t, visible)

	pending, err := m.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, m.ApproveQuote(ctx, created.ID))
	visible, err = m.ListQuotes(ctx, QuoteFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)

	require.NoError(t, m.DeleteQuote(ctx, created.ID))
	_, err = m.GetQuote(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMockFavoritesNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMock(DefaultSeed())

	require.NoError(t, m.AddFavorite(ctx, "u1", 1))
	require.NoError(t, m.AddFavorite(ctx, "u1", 2))
	require.NoError(t, m.AddFavorite(ctx, "u1", 1)) // idempotent

	favs, err := m.ListFavorites(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	require.Equal(t, int64(2), favs[0].ID)
	require.Equal(t, int64(1), favs[1].ID)

	favorited, err := m.IsFavorited(ctx, "u1", 2)
	require.NoError(t, err)
	require.True(t, favorited)

	require.NoError(t, m.RemoveFavorite(ctx, "u1", 2))
	require.NoError(t, m.RemoveFavorite(ctx, "u1", 2)) // idempotent

	favorited, err = m.IsFavorited(ctx, "u1", 2)
	require.NoError(t, err)
	require.False(t, favorited)
}
