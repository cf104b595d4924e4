package favorites

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"quotedeck/internal/logger"
)

type Action string

const (
	ActionAdd    Action = "add"
	ActionRemove Action = "remove"
)

// PendingOp is a mutation taken against the local store while degraded,
// held until reconciliation clears the queue.
type PendingOp struct {
	Principal string    `json:"principal"`
	QuoteID   int64     `json:"quote_id"`
	Action    Action    `json:"action"`
	QueuedAt  time.Time `json:"queued_at"`
}

// SyncStatus is the externally visible synchronizer state.
type SyncStatus struct {
	Degraded    bool        `json:"degraded"`
	Reconciling bool        `json:"reconciling"`
	SessionOnly bool        `json:"session_only"`
	PendingOps  []PendingOp `json:"pending_ops"`
}

// Synchronizer keeps the favorite relation correct across the remote and
// local stores. Online, the remote is authoritative and writes mirror
// through to the local store. After an unexpected remote failure it runs
// degraded: every read and write resolves locally and mutations queue until
// a reconnect succeeds. One instance per session; no package-level state.
type Synchronizer struct {
	local  *LocalStore
	remote Store
	probe  func(ctx context.Context) error
	clock  func() time.Time

	mu          sync.Mutex
	degraded    bool
	reconciling bool
	pending     []PendingOp
	inflight    map[string]struct{}
}

func NewSynchronizer(local *LocalStore, remote Store, probe func(ctx context.Context) error) *Synchronizer {
	return &Synchronizer{
		local:    local,
		remote:   remote,
		probe:    probe,
		clock:    time.Now,
		inflight: make(map[string]struct{}),
	}
}

func pairKey(principal string, quoteID int64) string {
	return fmt.Sprintf("%s/%d", principal, quoteID)
}

// Toggle flips the favorite state for (principal, quoteID) and returns the
// new state. Online: remote first, mirrored locally on success; a remote
// failure degrades the session, applies the mutation locally and queues it.
// Degraded: local only, no inline remote retry. A concurrent toggle on the
// same pair returns ErrToggleInFlight.
func (s *Synchronizer) Toggle(ctx context.Context, principal string, quoteID int64) (bool, error) {
	key := pairKey(principal, quoteID)

	s.mu.Lock()
	if _, busy := s.inflight[key]; busy {
		s.mu.Unlock()
		return false, ErrToggleInFlight
	}
	s.inflight[key] = struct{}{}
	degraded := s.degraded
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}()

	// The local mirror stands in for a remote is_favorited round trip.
	current, _ := s.local.Contains(ctx, principal, quoteID)
	want := !current

	if degraded {
		s.applyLocal(ctx, principal, quoteID, want, true)
		return want, nil
	}

	var remoteErr error
	if want {
		_, remoteErr = s.remote.Add(ctx, principal, quoteID)
	} else {
		_, remoteErr = s.remote.Remove(ctx, principal, quoteID)
	}

	if remoteErr != nil {
		s.degrade("toggle", remoteErr)
		s.applyLocal(ctx, principal, quoteID, want, true)
		return want, nil
	}

	// Write-through: mirror only after the remote write is confirmed.
	s.applyLocal(ctx, principal, quoteID, want, false)
	return want, nil
}

// IsFavorited resolves membership remotely while online, degrading and
// answering from the local store on failure.
func (s *Synchronizer) IsFavorited(ctx context.Context, principal string, quoteID int64) (bool, error) {
	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()

	if !degraded {
		favorited, err := s.remote.Contains(ctx, principal, quoteID)
		if err == nil {
			return favorited, nil
		}
		s.degrade("is_favorited", err)
	}

	return s.local.Contains(ctx, principal, quoteID)
}

// ListIDs returns the favorite set newest-first. A successful remote read
// refreshes the local mirror; a failed one degrades and serves local state.
func (s *Synchronizer) ListIDs(ctx context.Context, principal string) ([]int64, error) {
	s.mu.Lock()
	degraded := s.degraded
	s.mu.Unlock()

	if !degraded {
		ids, err := s.remote.List(ctx, principal)
		if err == nil {
			s.local.Replace(ctx, principal, ids)
			return ids, nil
		}
		s.degrade("list_favorites", err)
	}

	return s.local.List(ctx, principal)
}

func (s *Synchronizer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return SyncStatus{
		Degraded:    s.degraded,
		Reconciling: s.reconciling,
		SessionOnly: s.local.SessionOnly(),
		PendingOps:  append([]PendingOp(nil), s.pending...),
	}
}

// applyLocal performs the mutation against the local store, queueing it for
// replay when taken during degradation.
func (s *Synchronizer) applyLocal(ctx context.Context, principal string, quoteID int64, favorited, queue bool) {
	if favorited {
		s.local.Add(ctx, principal, quoteID)
	} else {
		s.local.Remove(ctx, principal, quoteID)
	}

	if !queue {
		return
	}

	action := ActionRemove
	if favorited {
		action = ActionAdd
	}

	s.mu.Lock()
	s.pending = append(s.pending, PendingOp{
		Principal: principal,
		QuoteID:   quoteID,
		Action:    action,
		QueuedAt:  s.clock(),
	})
	s.mu.Unlock()
}

func (s *Synchronizer) degrade(op string, err error) {
	s.mu.Lock()
	already := s.degraded
	s.degraded = true
	s.mu.Unlock()

	if !already {
		logger.Log.Warn("Remote favorites unavailable, entering degraded mode",
			zap.String("op", op),
			zap.Error(err),
		)
	}
}
