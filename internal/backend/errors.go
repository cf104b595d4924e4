package backend

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	// KindNetwork covers transport failures: dial, timeout, broken body.
	KindNetwork ErrorKind = "network"
	// KindMalformed covers undecodable or envelope-less responses.
	KindMalformed ErrorKind = "malformed"
	// KindProcedure covers unknown RPC procedures and schema drift.
	KindProcedure ErrorKind = "procedure"
	// KindRejected covers requests the service understood and refused.
	KindRejected ErrorKind = "rejected"
)

// RemoteError is the only error type crossing this package's boundary. The
// synchronizer decides what to do with it; nothing here is fatal.
type RemoteError struct {
	Op   string
	Kind ErrorKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

func remoteErr(op string, kind ErrorKind, err error) *RemoteError {
	return &RemoteError{Op: op, Kind: kind, Err: err}
}

// IsRemote reports whether err originated at the remote boundary, and
// returns the typed error if so.
func IsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// ErrNotFound is returned by GetQuote when the id references nothing.
var ErrNotFound = errors.New("quote not found")
