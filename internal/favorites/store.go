// Package favorites maintains the per-principal favorite set across two
// storage backends with asymmetric reliability: the hosted service and the
// local profile store. The Synchronizer decides per operation which side is
// authoritative and replays local divergence once connectivity returns.
package favorites

import (
	"context"

	"quotedeck/internal/backend"
)

// Store is the capability set shared by every favorite-set variant. Add and
// Remove report whether membership changed; both are idempotent. List
// returns quote ids newest-favorite-first.
type Store interface {
	Contains(ctx context.Context, principal string, quoteID int64) (bool, error)
	Add(ctx context.Context, principal string, quoteID int64) (bool, error)
	Remove(ctx context.Context, principal string, quoteID int64) (bool, error)
	List(ctx context.Context, principal string) ([]int64, error)
}

// RemoteStore projects the Store capability onto a Backend. Handing it a
// backend.Mock yields the mock variant; the selection happens once at
// startup, never per call site.
type RemoteStore struct {
	backend backend.Backend
}

var _ Store = (*RemoteStore)(nil)

func NewRemoteStore(b backend.Backend) *RemoteStore {
	return &RemoteStore{backend: b}
}

func (r *RemoteStore) Contains(ctx context.Context, principal string, quoteID int64) (bool, error) {
	return r.backend.IsFavorited(ctx, principal, quoteID)
}

func (r *RemoteStore) Add(ctx context.Context, principal string, quoteID int64) (bool, error) {
	if err := r.backend.AddFavorite(ctx, principal, quoteID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RemoteStore) Remove(ctx context.Context, principal string, quoteID int64) (bool, error) {
	if err := r.backend.RemoveFavorite(ctx, principal, quoteID); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RemoteStore) List(ctx context.Context, principal string) ([]int64, error) {
	quotes, err := r.backend.ListFavorites(ctx, principal)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(quotes))
	for _, q := range quotes {
		ids = append(ids, q.ID)
	}
	return ids, nil
}
