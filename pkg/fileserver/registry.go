package fileserver

import (
	"context"
	"sync"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// aliases maps every name a capability was ever configurable under to its
// canonical implementation. Declaring one capability twice under different
// aliases yields one instance, not two with divergent cache state.
var aliases = map[string]string{
	"git":       "git",
	"gitfs":     "git",
	"gitsfsb":   "git",
	"gitpfsb":   "git",
	"roots":     "roots",
	"rootsfsb":  "roots",
	"rootssfsb": "roots",
	"rootspfsb": "roots",
	"file":      "roots",
}

// CanonicalName resolves a configuration-declared backend name, possibly a
// historical alias, to its canonical implementation name.
func CanonicalName(declared string) (string, error) {
	canonical, ok := aliases[declared]
	if !ok {
		return "", status.ErrUnknownBackend.Wrap(errors.New("no backend named " + declared))
	}
	return canonical, nil
}

// Registry is the sole constructor of backend instances: exactly one live
// instance exists per (consumer, canonical name), availability-gated and
// reused for the lifetime of the process. It replaces implicit process-wide
// registration state: build one and hand it to every Fileserver.
type Registry struct {
	cfg       *config.Config
	factories map[string]Factory
	l         *zap.Logger

	mu        sync.Mutex
	instances map[instanceKey]*registration
}

type instanceKey struct {
	consumer  Consumer
	canonical string
}

type registration struct {
	backend Backend

	// availability is probed once per instance and memoized
	probe sync.Once
	avail atomic.Error
}

// RegistryOption alters how a Registry is built
type RegistryOption func(*Registry)

// RegistryLogger injects a logging facility into the registry
func RegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.l = l
		}
	}
}

// NewRegistry builds a registry over a set of backend factories, keyed by
// canonical name. Use Factories() for the stock set.
func NewRegistry(cfg *config.Config, factories map[string]Factory, opts ...RegistryOption) *Registry {
	r := &Registry{
		cfg:       cfg,
		factories: factories,
		l:         zap.NewNop(),
		instances: make(map[instanceKey]*registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a declared backend name to the live instance serving the
// consumer.
//
// An unknown name returns status.ErrUnknownBackend before anything is
// built. An instance whose availability probe failed returns
// status.ErrUnavailable; the reason is logged once, at probe time, not on
// every call.
func (r *Registry) Resolve(ctx context.Context, consumer Consumer, declared string) (Backend, error) {
	canonical, err := CanonicalName(declared)
	if err != nil {
		return nil, err
	}

	reg, err := r.registration(consumer, canonical)
	if err != nil {
		return nil, err
	}

	reg.probe.Do(func() {
		aerr := reg.backend.IsAvailable(ctx, consumer)
		if aerr != nil && !errors.Is(aerr, status.ErrUnavailable) {
			aerr = status.ErrUnavailable.Wrap(aerr)
		}
		reg.avail.Store(aerr)
		if aerr != nil {
			r.l.Info("fileserver backend excluded",
				zap.Stringer("consumer", consumer),
				zap.String("backend", canonical),
				zap.Error(aerr),
			)
		}
	})

	if aerr := reg.avail.Load(); aerr != nil {
		return nil, aerr
	}
	return reg.backend, nil
}

func (r *Registry) registration(consumer Consumer, canonical string) (*registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := instanceKey{consumer: consumer, canonical: canonical}
	if reg, ok := r.instances[key]; ok {
		return reg, nil
	}

	factory, ok := r.factories[canonical]
	if !ok {
		return nil, status.ErrUnknownBackend.Wrap(errors.New("no factory for backend " + canonical))
	}
	backend, err := factory(consumer, r.cfg, r.l)
	if err != nil {
		return nil, err
	}

	reg := &registration{backend: backend}
	r.instances[key] = reg
	return reg, nil
}
