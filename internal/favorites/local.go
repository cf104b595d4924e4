package favorites

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"quotedeck/internal/kv"
	"quotedeck/internal/logger"
)

const keyPrefix = "favorites:"

// LocalStore is the durable per-principal favorite set and the fallback
// path while degraded. It never returns an error: storage failures demote
// it to session-only operation (an in-memory set for the process lifetime),
// and corrupt payloads read as empty.
type LocalStore struct {
	mu          sync.Mutex
	kv          kv.Store
	cache       map[string][]int64
	loaded      map[string]bool
	sessionOnly bool
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(store kv.Store) *LocalStore {
	return &LocalStore{
		kv:     store,
		cache:  make(map[string][]int64),
		loaded: make(map[string]bool),
	}
}

// SessionOnly reports whether persistence has been lost and favorites now
// live only for this process.
func (l *LocalStore) SessionOnly() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionOnly
}

func (l *LocalStore) Contains(ctx context.Context, principal string, quoteID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range l.load(ctx, principal) {
		if id == quoteID {
			return true, nil
		}
	}
	return false, nil
}

func (l *LocalStore) Add(ctx context.Context, principal string, quoteID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.load(ctx, principal)
	for _, id := range ids {
		if id == quoteID {
			return false, nil
		}
	}
	l.cache[principal] = append(ids, quoteID)
	l.persist(ctx, principal)
	return true, nil
}

func (l *LocalStore) Remove(ctx context.Context, principal string, quoteID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.load(ctx, principal)
	for i, id := range ids {
		if id == quoteID {
			l.cache[principal] = append(append([]int64(nil), ids[:i]...), ids[i+1:]...)
			l.persist(ctx, principal)
			return true, nil
		}
	}
	return false, nil
}

// List returns ids newest-favorite-first (reverse of insertion order).
func (l *LocalStore) List(ctx context.Context, principal string) ([]int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := l.load(ctx, principal)
	out := make([]int64, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, ids[i])
	}
	return out, nil
}

// Replace overwrites the stored set with ids given newest-first, used to
// refresh the mirror after a confirmed remote read.
func (l *LocalStore) Replace(ctx context.Context, principal string, newestFirst []int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]int64, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		ids = append(ids, newestFirst[i])
	}
	l.cache[principal] = ids
	l.loaded[principal] = true
	l.persist(ctx, principal)
}

// load reads the persisted set into the cache once per principal. Callers
// hold l.mu.
func (l *LocalStore) load(ctx context.Context, principal string) []int64 {
	if l.loaded[principal] {
		return l.cache[principal]
	}
	l.loaded[principal] = true

	raw, ok, err := l.kv.Get(ctx, keyPrefix+principal)
	if err != nil {
		l.markSessionOnly(err)
		return l.cache[principal]
	}
	if !ok {
		return l.cache[principal]
	}

	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		// Corrupt payloads read as empty, never as errors.
		logger.Log.Warn("Corrupt favorite set, treating as empty",
			zap.String("principal", principal),
			zap.Error(err),
		)
		return l.cache[principal]
	}

	l.cache[principal] = ids
	return ids
}

// persist writes the cached set through to storage. Callers hold l.mu.
func (l *LocalStore) persist(ctx context.Context, principal string) {
	raw, err := json.Marshal(l.cache[principal])
	if err != nil {
		l.markSessionOnly(err)
		return
	}
	if err := l.kv.Set(ctx, keyPrefix+principal, raw); err != nil {
		l.markSessionOnly(err)
	}
}

func (l *LocalStore) markSessionOnly(err error) {
	if !l.sessionOnly {
		logger.Log.Warn("Local storage unavailable, favorites are session-only", zap.Error(err))
	}
	l.sessionOnly = true
}
