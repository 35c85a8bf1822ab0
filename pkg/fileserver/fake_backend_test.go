package fileserver

import (
	"context"

	"github.com/fsmirror/fsmirror/pkg/config"
	"go.uber.org/zap"
)

// fakeBackend scripts a backend for registry and orchestration tests
type fakeBackend struct {
	name     string
	avail    error
	outcomes []SyncOutcome
	err      error

	availCalls int
	syncCalls  int
}

func (f *fakeBackend) String() string {
	return f.name
}

func (f *fakeBackend) IsAvailable(_ context.Context, _ Consumer) error {
	f.availCalls++
	return f.avail
}

func (f *fakeBackend) Synchronize(_ context.Context) ([]SyncOutcome, error) {
	f.syncCalls++
	return f.outcomes, f.err
}

// fakeFactory counts constructions and hands out fresh fakes
type fakeFactory struct {
	name  string
	avail error

	calls int
	built []*fakeBackend
}

func (ff *fakeFactory) factory(_ Consumer, _ *config.Config, _ *zap.Logger) (Backend, error) {
	ff.calls++
	b := &fakeBackend{name: ff.name, avail: ff.avail}
	ff.built = append(ff.built, b)
	return b, nil
}
