// Package fileserver keeps local content caches in sync with their
// configured sources.
//
// A Backend mirrors one class of source (a local directory tree, a set of
// git remotes) into cache slots it owns. A Registry resolves configured
// backend names, possibly historical aliases, to singleton Backend
// instances per consumer. A Fileserver drives the resolved backends of one
// consumer through an update cycle and aggregates their outcomes.
package fileserver

import (
	"context"

	"github.com/fsmirror/fsmirror/pkg/config"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Backend implementations know how to mirror their configured sources into
// the cache slots they own.
//
// Synchronize drives every source to a terminal outcome for this cycle and
// never aborts remaining sources because one of them failed. The returned
// error is reserved for backend-wide conditions (e.g. the cache filesystem
// rejecting every slot); per-source failures travel in the outcomes.
type Backend interface {
	String() string

	// IsAvailable reports whether the backend can run in the current
	// environment. A nil return means usable; otherwise the error wraps
	// status.ErrUnavailable with the reason.
	IsAvailable(ctx context.Context, consumer Consumer) error

	// Synchronize brings every configured source up to date, one outcome per
	// source, in configured order.
	Synchronize(ctx context.Context) ([]SyncOutcome, error)
}

// Factory builds the backend instance serving one consumer. Factories are
// invoked by the Registry only.
type Factory func(consumer Consumer, cfg *config.Config, l *zap.Logger) (Backend, error)

// SyncState is the terminal state a source reaches within one update cycle
type SyncState int

const (
	// Unchanged means the cache already matched the source
	Unchanged SyncState = iota

	// Updated means new content was brought into the cache
	Updated

	// Failed means this source could not be synchronized this cycle. The
	// cache slot keeps its last-known-good content and the source is
	// retried on the next cycle.
	Failed
)

func (s SyncState) String() string {
	switch s {
	case Unchanged:
		return "unchanged"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SyncOutcome is the per-source result of one update cycle
type SyncOutcome struct {
	// Source identifies the configured source (a root path, a url@ref pair)
	Source string

	State SyncState

	// OldRev and NewRev identify the cached revision before and after the
	// cycle, when the backend tracks revisions. OldRev is empty on an
	// initial mirror.
	OldRev string
	NewRev string

	// Reason qualifies a failure ("timeout", "non-fast-forward", ...)
	Reason string

	Err error
}

// BackendStatus summarizes all outcomes of one backend for one cycle
type BackendStatus int

const (
	// BackendOK means every source ended Unchanged or Updated
	BackendOK BackendStatus = iota

	// BackendPartial means some sources failed while others succeeded
	BackendPartial

	// BackendFailed means no source succeeded
	BackendFailed
)

func (s BackendStatus) String() string {
	switch s {
	case BackendOK:
		return "ok"
	case BackendPartial:
		return "partial"
	case BackendFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BackendResult is the per-backend entry of an aggregate result
type BackendResult struct {
	// Name is the canonical backend name
	Name string

	Status BackendStatus

	// Outcomes in configured source order
	Outcomes []SyncOutcome

	// Err carries a backend-wide error, not per-source failures
	Err error
}

func newBackendResult(name string, outcomes []SyncOutcome, err error) BackendResult {
	res := BackendResult{Name: name, Outcomes: outcomes, Err: err}
	var failed int
	for _, o := range outcomes {
		if o.State == Failed {
			failed++
		}
	}
	switch {
	case len(outcomes) == 0 && err != nil:
		res.Status = BackendFailed
	case failed == len(outcomes) && failed > 0:
		res.Status = BackendFailed
	case failed > 0 || err != nil:
		res.Status = BackendPartial
	default:
		res.Status = BackendOK
	}
	return res
}

// AggregateResult collects every backend result of one consumer's update
// cycle, in configured backend order.
type AggregateResult struct {
	Consumer Consumer
	Backends []BackendResult
}

// Ok is true when no source of any backend failed
func (r AggregateResult) Ok() bool {
	for _, b := range r.Backends {
		if b.Status != BackendOK {
			return false
		}
	}
	return true
}

// Err combines every failure of the cycle into one error, nil when Ok
func (r AggregateResult) Err() error {
	var err error
	for _, b := range r.Backends {
		err = multierr.Append(err, b.Err)
		for _, o := range b.Outcomes {
			err = multierr.Append(err, o.Err)
		}
	}
	return err
}
