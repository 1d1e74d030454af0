// Package app wires the application's services into a dependency container.
package app

import (
	"context"
	"log/slog"

	"github.com/nfrund/profitbridge/internal/config"
	"github.com/nfrund/profitbridge/internal/investments"
	"github.com/nfrund/profitbridge/internal/module"
	"github.com/nfrund/profitbridge/internal/modules/admin"
	"github.com/nfrund/profitbridge/internal/pubsub"
	"github.com/nfrund/profitbridge/internal/rendering"
	"github.com/nfrund/profitbridge/internal/store"
	"github.com/nfrund/profitbridge/internal/topicmgr"
	"github.com/nfrund/profitbridge/internal/tracing"
	"github.com/nfrund/profitbridge/internal/websocket"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry is the tracer in use and the function that flushes it.
type Telemetry struct {
	Tracer   trace.Tracer
	Shutdown func(context.Context) error
}

// Options replace services in the container, mainly for tests.
type Options struct {
	// Store, when set, is used instead of the client chosen from configuration.
	Store store.Client
}

// NewContainer registers every core service. Services are built lazily on
// first use; ctx bounds the store connection attempt.
func NewContainer(ctx context.Context, cfg config.Provider, opts Options) do.Injector {
	i := do.New()

	do.ProvideValue(i, cfg)

	do.Provide(i, func(do.Injector) (*Telemetry, error) {
		tracer, shutdown, err := tracing.Setup(ctx, cfg.GetTracing())
		if err != nil {
			return nil, err
		}
		return &Telemetry{Tracer: tracer, Shutdown: shutdown}, nil
	})

	do.Provide(i, func(do.Injector) (store.Client, error) {
		if opts.Store != nil {
			return opts.Store, nil
		}
		return store.New(ctx, cfg)
	})

	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(pubsub.WithTracer(do.MustInvoke[*Telemetry](i).Tracer)), nil
	})
	do.Provide(i, func(i do.Injector) (pubsub.Publisher, error) {
		return do.MustInvoke[*pubsub.WatermillBridge](i), nil
	})
	do.Provide(i, func(i do.Injector) (pubsub.Subscriber, error) {
		return do.MustInvoke[*pubsub.WatermillBridge](i), nil
	})

	do.Provide(i, func(do.Injector) (*topicmgr.Manager, error) {
		m := topicmgr.NewManager()
		if err := m.RegisterAll(websocket.Topics()...); err != nil {
			return nil, err
		}
		slog.Debug("Topics registered", "count", m.Count())
		return m, nil
	})

	do.Provide(i, func(i do.Injector) (*websocket.Bridge, error) {
		bus := do.MustInvoke[*pubsub.WatermillBridge](i)
		return websocket.NewBridge(bus, bus), nil
	})

	do.Provide(i, func(do.Injector) (rendering.Renderer, error) {
		return rendering.NewUniversalRenderer(), nil
	})

	do.Provide(i, func(i do.Injector) (*investments.Joiner, error) {
		s, err := do.Invoke[store.Client](i)
		if err != nil {
			return nil, err
		}
		return investments.NewJoiner(s, do.MustInvoke[*Telemetry](i).Tracer), nil
	})
	do.Provide(i, func(i do.Injector) (*investments.ChangeListener, error) {
		s, err := do.Invoke[store.Client](i)
		if err != nil {
			return nil, err
		}
		return investments.NewChangeListener(s), nil
	})

	return i
}

// NewModules returns the list of all active modules for the application.
func NewModules() []module.Module {
	return []module.Module{
		admin.New(),
	}
}
