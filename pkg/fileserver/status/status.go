// Package status declares error constants returned by
// implementations of the Backend interface and by the
// resolution and orchestration layers above them.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/fileserver and one
// of its implementations.
package status

import "github.com/fsmirror/fsmirror/pkg/errors"

var (
	// Sentinel errors returned by the fileserver layers

	// ErrUnknownBackend indicates that a configured backend name does not
	// resolve to any known implementation. This is a configuration error and
	// is reported before any synchronization starts.
	ErrUnknownBackend = errors.New("unknown fileserver backend")

	// ErrUnavailable indicates that a backend cannot run in the current
	// environment. The backend is excluded from the active list, it is not a
	// synchronization failure.
	ErrUnavailable = errors.New("backend unavailable")

	// ErrNetwork indicates that a remote could not be reached or that the
	// transport failed mid-operation
	ErrNetwork = errors.New("network error while talking to remote")

	// ErrNonFastForward indicates that the remote history was rewritten: the
	// new revision does not descend from the one in cache. The cache slot is
	// left untouched.
	ErrNonFastForward = errors.New("non-fast-forward remote update")

	// ErrTimeout indicates that a remote operation exceeded its allotted time
	ErrTimeout = errors.New("timeout")

	// ErrCancelled indicates that the caller cancelled the update
	ErrCancelled = errors.New("cancelled")

	// ErrFilesystem indicates that a cache slot could not be written. When it
	// hits every slot of a backend in one cycle, the backend escalates it as
	// an environment problem.
	ErrFilesystem = errors.New("cache filesystem error")
)
