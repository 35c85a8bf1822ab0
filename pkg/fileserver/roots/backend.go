// Package roots implements the fileserver backend serving content that is
// already local: an ordered list of directory trees read in place.
//
// There is nothing to mirror, so synchronization is the fast-path no-op the
// other backends are measured against. The "cache" is the source directory
// itself.
package roots

import (
	"context"
	"strings"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Backend serves one consumer's configured root directories
type Backend struct {
	consumer fileserver.Consumer
	paths    []string
	fs       afero.Fs
	l        *zap.Logger
}

// Option alters how a Backend is built
type Option func(*Backend)

// Logger injects a logging facility into the backend
func Logger(l *zap.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.l = l
		}
	}
}

// Filesystem overrides the filesystem probed for the configured roots,
// mostly for tests
func Filesystem(fs afero.Fs) Option {
	return func(b *Backend) {
		if fs != nil {
			b.fs = fs
		}
	}
}

// New builds the roots backend for a consumer from its configured tree
func New(consumer fileserver.Consumer, cfg *config.Config, opts ...Option) *Backend {
	tree, _ := cfg.ForConsumer(consumer.String())
	b := &Backend{
		consumer: consumer,
		paths:    tree.Roots,
		fs:       afero.NewOsFs(),
		l:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Factory adapts New to the registry's factory signature
func Factory(consumer fileserver.Consumer, cfg *config.Config, l *zap.Logger) (fileserver.Backend, error) {
	return New(consumer, cfg, Logger(l)), nil
}

func (b *Backend) String() string {
	return "roots@" + strings.Join(b.paths, ",")
}

// IsAvailable verifies that every configured root exists and can be read
func (b *Backend) IsAvailable(_ context.Context, _ fileserver.Consumer) error {
	if len(b.paths) == 0 {
		return status.ErrUnavailable.Wrap(errors.New("no root directory configured"))
	}
	for _, path := range b.paths {
		fi, err := b.fs.Stat(path)
		if err != nil {
			return status.ErrUnavailable.Wrap(err)
		}
		if !fi.IsDir() {
			return status.ErrUnavailable.Wrap(errors.New("root is not a directory: " + path))
		}
		f, err := b.fs.Open(path)
		if err != nil {
			return status.ErrUnavailable.Wrap(err)
		}
		_ = f.Close()
	}
	return nil
}

// Synchronize reports one Unchanged outcome per root: content is read in
// place, never copied.
func (b *Backend) Synchronize(_ context.Context) ([]fileserver.SyncOutcome, error) {
	outcomes := make([]fileserver.SyncOutcome, 0, len(b.paths))
	for _, path := range b.paths {
		outcomes = append(outcomes, fileserver.SyncOutcome{
			Source: path,
			State:  fileserver.Unchanged,
		})
	}
	return outcomes, nil
}

// Roots returns the configured root paths in configured order
func (b *Backend) Roots() []string {
	out := make([]string, len(b.paths))
	copy(out, b.paths)
	return out
}
