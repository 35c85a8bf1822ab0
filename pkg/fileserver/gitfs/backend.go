// Package gitfs implements the fileserver backend mirroring remote git
// repositories into deterministic local cache slots, one slot per
// configured {url, ref} source.
//
// Sources synchronize independently: a failing remote marks its own slot
// Failed and never aborts its siblings. Updates are fast-forward only; a
// rewritten upstream history is surfaced as a failure instead of being
// masked by a force reset.
package gitfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend mirrors one consumer's configured remotes
type Backend struct {
	consumer fileserver.Consumer
	sources  []config.Remote
	cacheDir string
	workers  int
	timeout  time.Duration
	l        *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
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

// CacheDir overrides the directory holding this backend's cache slots
func CacheDir(dir string) Option {
	return func(b *Backend) {
		if dir != "" {
			b.cacheDir = dir
		}
	}
}

// Workers bounds how many sources synchronize concurrently
func Workers(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.workers = n
		}
	}
}

// Timeout bounds the synchronization of a single source
func Timeout(d time.Duration) Option {
	return func(b *Backend) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// New builds the git backend for a consumer from its configured tree
func New(consumer fileserver.Consumer, cfg *config.Config, opts ...Option) *Backend {
	tree, _ := cfg.ForConsumer(consumer.String())
	b := &Backend{
		consumer: consumer,
		sources:  tree.Remotes,
		cacheDir: filepath.Join(cfg.CacheRoot, consumer.String(), "git"),
		workers:  cfg.Workers,
		timeout:  cfg.Timeout,
		l:        zap.NewNop(),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workers <= 0 {
		b.workers = config.DefaultWorkers
	}
	if b.timeout <= 0 {
		b.timeout = config.DefaultTimeout
	}
	return b
}

// Factory adapts New to the registry's factory signature
func Factory(consumer fileserver.Consumer, cfg *config.Config, l *zap.Logger) (fileserver.Backend, error) {
	return New(consumer, cfg, Logger(l)), nil
}

func (b *Backend) String() string {
	return fmt.Sprintf("git@%s(%d remotes)", b.cacheDir, len(b.sources))
}

// IsAvailable verifies that the cache root can host this backend's slots
func (b *Backend) IsAvailable(_ context.Context, _ fileserver.Consumer) error {
	if err := os.MkdirAll(b.cacheDir, 0700); err != nil {
		return status.ErrUnavailable.Wrap(err)
	}
	probe, err := os.CreateTemp(b.cacheDir, ".probe.*")
	if err != nil {
		return status.ErrUnavailable.Wrap(err)
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}

// Synchronize brings every configured source up to date, at most workers at
// a time, each bounded by the per-source timeout. Outcomes come back in
// configured order whatever the completion order was.
//
// When every slot of the cycle failed on the cache filesystem the error
// escalates: that is an environment problem, not a remote one.
func (b *Backend) Synchronize(ctx context.Context) ([]fileserver.SyncOutcome, error) {
	outcomes := make([]fileserver.SyncOutcome, len(b.sources))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for i := range b.sources {
		i := i
		g.Go(func() error {
			outcomes[i] = b.syncSource(ctx, b.sources[i])
			return nil
		})
	}
	_ = g.Wait()

	if len(outcomes) > 0 {
		fsFailed := 0
		for _, o := range outcomes {
			if o.Err != nil && errors.Is(o.Err, status.ErrFilesystem) {
				fsFailed++
			}
		}
		if fsFailed == len(outcomes) {
			return outcomes, status.ErrFilesystem.Wrap(
				errors.New("every slot under " + b.cacheDir + " failed to write"))
		}
	}
	return outcomes, nil
}

// Resolve maps a relative path to the slot file serving it.
//
// When several remotes publish the same relative path, the last-configured
// remote wins. This is a deliberate, documented precedence rule: slots are
// scanned in reverse configured order and the first hit is served.
func (b *Backend) Resolve(relpath string) (string, bool) {
	cleaned := filepath.Clean(relpath)
	if cleaned == "." || filepath.IsAbs(cleaned) ||
		cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", false
	}
	if cleaned == ".git" || strings.HasPrefix(cleaned, ".git"+string(filepath.Separator)) {
		return "", false
	}
	for i := len(b.sources) - 1; i >= 0; i-- {
		candidate := filepath.Join(b.SlotDir(b.sources[i]), cleaned)
		fi, err := os.Stat(candidate)
		if err == nil && !fi.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// Sources returns the configured remotes in configured order
func (b *Backend) Sources() []config.Remote {
	out := make([]config.Remote, len(b.sources))
	copy(out, b.sources)
	return out
}
