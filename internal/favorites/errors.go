package favorites

import (
	"errors"
	"fmt"
)

// ErrToggleInFlight rejects a second toggle on the same (principal, quote)
// pair while the first is still settling.
var ErrToggleInFlight = errors.New("favorite toggle already in flight for this quote")

// ReconcileError reports a failed reconnect attempt. Degraded mode persists
// and pendingOps stay queued; a later retry re-runs the same reconciliation.
type ReconcileError struct {
	Stage string // "probe" or "reconcile"
	Err   error
}

func (e *ReconcileError) Error() string {
	return fmt.Sprintf("reconnect failed at %s: %v", e.Stage, e.Err)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// IsProbeFailure reports whether err is a reconnect failure at the probe
// stage, before any reconciliation work started.
func IsProbeFailure(err error) bool {
	var re *ReconcileError
	return errors.As(err, &re) && re.Stage == "probe"
}
