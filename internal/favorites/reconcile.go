package favorites

import (
	"context"

	"go.uber.org/zap"

	"quotedeck/internal/logger"
)

// Reconnect probes the remote and, if reachable, reconciles every principal
// touched while degraded plus the given one. Local state is authoritative
// for the degraded session: the remote set is made to match it, which means
// favorites added remotely by another device during the outage are dropped.
// Degraded mode and pendingOps clear only on full success; any partial
// failure leaves both untouched so a retry re-runs the same idempotent
// reconciliation. Non-reentrant: a concurrent attempt is ignored.
func (s *Synchronizer) Reconnect(ctx context.Context, principal string) error {
	s.mu.Lock()
	if s.reconciling {
		s.mu.Unlock()
		return nil
	}
	if !s.degraded {
		s.mu.Unlock()
		return nil
	}
	s.reconciling = true

	// Only the ops queued before this pass may be cleared by it; toggles
	// taken while reconciling queue behind the snapshot and get their own
	// pass below.
	snapshot := len(s.pending)
	principals := map[string]struct{}{}
	if principal != "" {
		principals[principal] = struct{}{}
	}
	for _, op := range s.pending {
		principals[op.Principal] = struct{}{}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.reconciling = false
		s.mu.Unlock()
	}()

	if err := s.probe(ctx); err != nil {
		logger.Log.Info("Connectivity probe failed, staying degraded", zap.Error(err))
		return &ReconcileError{Stage: "probe", Err: err}
	}

	replayed := 0
	for {
		for p := range principals {
			if err := s.reconcile(ctx, p); err != nil {
				logger.Log.Warn("Reconciliation failed, staying degraded",
					zap.String("principal", p),
					zap.Error(err),
				)
				return &ReconcileError{Stage: "reconcile", Err: err}
			}
		}

		s.mu.Lock()
		replayed += snapshot
		s.pending = append([]PendingOp(nil), s.pending[snapshot:]...)
		if len(s.pending) == 0 {
			s.degraded = false
			s.mu.Unlock()
			break
		}

		// Writes landed mid-pass; reconcile them too before going online.
		snapshot = len(s.pending)
		principals = map[string]struct{}{}
		for _, op := range s.pending {
			principals[op.Principal] = struct{}{}
		}
		s.mu.Unlock()
	}

	logger.Log.Info("Reconnected, favorite stores converged", zap.Int("replayed_ops", replayed))
	return nil
}

// reconcile diffs the local and remote sets for one principal and pushes
// the remote to match the local. Every individual call is idempotent, so an
// aborted pass can simply run again.
func (s *Synchronizer) reconcile(ctx context.Context, principal string) error {
	remoteIDs, err := s.remote.List(ctx, principal)
	if err != nil {
		return err
	}
	localIDs, err := s.local.List(ctx, principal)
	if err != nil {
		return err
	}

	remoteSet := make(map[int64]struct{}, len(remoteIDs))
	for _, id := range remoteIDs {
		remoteSet[id] = struct{}{}
	}
	localSet := make(map[int64]struct{}, len(localIDs))
	for _, id := range localIDs {
		localSet[id] = struct{}{}
	}

	for _, id := range localIDs {
		if _, ok := remoteSet[id]; !ok {
			if _, err := s.remote.Add(ctx, principal, id); err != nil {
				return err
			}
		}
	}

	for _, id := range remoteIDs {
		if _, ok := localSet[id]; !ok {
			if _, err := s.remote.Remove(ctx, principal, id); err != nil {
				return err
			}
		}
	}

	return nil
}
