package fileserver

import (
	"context"

	"github.com/fsmirror/fsmirror/pkg/config"
	"github.com/fsmirror/fsmirror/pkg/errors"
	"github.com/fsmirror/fsmirror/pkg/fileserver/status"
	"go.uber.org/zap"
)

// Fileserver drives the update cycle of one consumer's backends.
//
// It holds the active, availability-gated backend instances in configured
// order. The same type serves both consumers; only the Consumer value
// differs.
type Fileserver struct {
	consumer Consumer
	registry *Registry
	l        *zap.Logger

	// active backends with their canonical names, configured order preserved
	active []Backend
	names  []string
}

// Option alters how a Fileserver is built
type Option func(*Fileserver)

// Logger injects a logging facility into the fileserver
func Logger(l *zap.Logger) Option {
	return func(f *Fileserver) {
		if l != nil {
			f.l = l
		}
	}
}

// New resolves the declared backend names for a consumer and builds its
// fileserver.
//
// Unknown names fail construction: bad configuration is reported before any
// synchronization starts. Unavailable backends are skipped; the registry
// has already logged why. A capability declared twice under different
// aliases is kept once, at its first configured position.
func New(ctx context.Context, consumer Consumer, declared []string, registry *Registry, opts ...Option) (*Fileserver, error) {
	f := &Fileserver{
		consumer: consumer,
		registry: registry,
		l:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}

	seen := make(map[Backend]struct{}, len(declared))
	for _, name := range declared {
		backend, err := registry.Resolve(ctx, consumer, name)
		if err != nil {
			if errors.Is(err, status.ErrUnavailable) {
				continue
			}
			return nil, err
		}
		if _, dup := seen[backend]; dup {
			f.l.Debug("backend declared more than once, keeping first position",
				zap.Stringer("consumer", consumer),
				zap.String("declared", name),
			)
			continue
		}
		seen[backend] = struct{}{}
		canonical, _ := CanonicalName(name)
		f.active = append(f.active, backend)
		f.names = append(f.names, canonical)
	}
	return f, nil
}

// Consumer this fileserver serves
func (f *Fileserver) Consumer() Consumer {
	return f.consumer
}

// Backends returns the active backend instances in configured order
func (f *Fileserver) Backends() []Backend {
	out := make([]Backend, len(f.active))
	copy(out, f.active)
	return out
}

// Update synchronizes every active backend in configured order.
//
// One backend failing never prevents the next from running: failures are
// captured into the aggregate, and the aggregate preserves configured order
// regardless of how individual backends schedule their work. With nothing
// changed upstream, Update is idempotent and reports all-unchanged.
func (f *Fileserver) Update(ctx context.Context) AggregateResult {
	res := AggregateResult{Consumer: f.consumer}
	for i, backend := range f.active {
		l := f.l.With(
			zap.Stringer("consumer", f.consumer),
			zap.String("backend", f.names[i]),
		)
		l.Debug("synchronizing backend", zap.Stringer("instance", backend))

		outcomes, err := backend.Synchronize(ctx)
		br := newBackendResult(f.names[i], outcomes, err)
		res.Backends = append(res.Backends, br)

		switch br.Status {
		case BackendOK:
			l.Info("backend synchronized", zap.Int("sources", len(outcomes)))
		case BackendPartial:
			l.Warn("backend partially synchronized",
				zap.Int("sources", len(outcomes)),
				zap.Error(br.Err),
			)
		case BackendFailed:
			l.Error("backend synchronization failed", zap.Error(br.Err))
		}
	}
	return res
}

// UpdateAll builds one fileserver per consumer from configuration and
// updates each, returning aggregates in consumer order. This is the whole
// of the "update fileserver caches" entry point; failures are flagged in
// the aggregates, construction errors alone abort.
//
// Every consumer's declared names resolve before any backend synchronizes:
// a configuration error anywhere aborts the run with nothing touched.
func UpdateAll(ctx context.Context, cfg *config.Config, registry *Registry, opts ...Option) ([]AggregateResult, error) {
	fileservers := make([]*Fileserver, 0, len(Consumers()))
	for _, consumer := range Consumers() {
		tree, _ := cfg.ForConsumer(consumer.String())
		f, err := New(ctx, consumer, tree.Backends, registry, opts...)
		if err != nil {
			return nil, err
		}
		fileservers = append(fileservers, f)
	}
	results := make([]AggregateResult, 0, len(fileservers))
	for _, f := range fileservers {
		results = append(results, f.Update(ctx))
	}
	return results, nil
}
