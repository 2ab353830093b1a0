package hexcore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mpereira/hexcore/pkg/hexcore/dispatch"
	"github.com/mpereira/hexcore/pkg/hexcore/emit"
	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/invariant"
	"github.com/mpereira/hexcore/pkg/hexcore/listener"
	"github.com/mpereira/hexcore/pkg/hexcore/logging"
	"github.com/mpereira/hexcore/pkg/hexcore/ports"
	"github.com/mpereira/hexcore/pkg/hexcore/store"
)

// ApplicationInvariant is bound to the application name on every
// context entering the runtime, unless already bound by the caller.
const ApplicationInvariant invariant.Key = "application"

// ErrMissingAdapter is returned by Start when a required port has no
// eligible adapter.
var ErrMissingAdapter = errors.New("hexcore: required port has no adapter")

// requiredPort is one port whose resolution Start verifies.
type requiredPort struct {
	name     string
	resolves func(*invariant.Bindings, *ports.Registry) bool
}

// App is the application runtime. It owns the port registry, the
// listener directory, the dispatch engine and the event emitter, and
// orchestrates the primary ports that feed input into them.
type App struct {
	name    string
	oneShot bool

	slogger *slog.Logger
	log     logging.Sink

	ports     *ports.Registry
	directory *listener.Directory
	engine    *dispatch.Engine
	emitter   *emit.Emitter
	journal   store.Store

	engineOpts []dispatch.Option
	dedupeTTL  time.Duration
	required   []requiredPort

	receiving emit.Subscription
}

// New creates an application runtime.
func New(name string, opts ...Option) (*App, error) {
	a := &App{
		name: name,
		slogger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})),
		ports:     ports.NewRegistry(),
		directory: listener.NewDirectory(),
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("hexcore: new %s: %w", name, err)
		}
	}

	engineOpts := []dispatch.Option{dispatch.WithLogger(a.slogger)}
	if a.journal != nil {
		engineOpts = append(engineOpts, dispatch.WithJournal(a.journal))
	}
	engineOpts = append(engineOpts, a.engineOpts...)
	a.engine = dispatch.New(a.directory, engineOpts...)

	a.emitter = emit.New(emit.Config{
		DeduplicateTTL: a.dedupeTTL,
		OnError: func(evt event.Event, receiverID string, err error) {
			a.slogger.Error("event receiver failed",
				"event_id", evt.ID(),
				"receiver", receiverID,
				"error", err)
		},
	})
	a.log = logging.NewSlogSink(a.slogger)

	return a, nil
}

// Name returns the application name.
func (a *App) Name() string { return a.name }

// Ports returns the port registry.
func (a *App) Ports() *ports.Registry { return a.ports }

// Directory returns the listener directory.
func (a *App) Directory() *listener.Directory { return a.directory }

// Engine returns the dispatch engine.
func (a *App) Engine() *dispatch.Engine { return a.engine }

// Emitter returns the event emitter.
func (a *App) Emitter() *emit.Emitter { return a.emitter }

// Log returns the application's logging sink.
func (a *App) Log() logging.Sink { return a.log }

// Start binds the runtime together: the app handle is attached to the
// port registry, the logging sink is resolved (console fallback),
// required ports are verified and the app subscribes to its own
// emitter so emitted events reach the dispatch engine.
func (a *App) Start(ctx context.Context) error {
	a.ports.BindApp(a)

	ctx, bindings := invariant.Ensure(ctx)
	if _, bound := bindings.Apply(ApplicationInvariant); !bound {
		bindings.Bind(ApplicationInvariant, a.name)
	}

	if sink, ok := ports.Resolve[logging.Sink](bindings, a.ports); ok {
		a.log = sink
	} else if a.log == nil {
		a.log = logging.Console()
	}

	for _, req := range a.required {
		if !req.resolves(bindings, a.ports) {
			a.log.Critical("required port has no adapter", "port", req.name)
			return fmt.Errorf("%w: %s", ErrMissingAdapter, req.name)
		}
	}

	if a.receiving == nil {
		a.receiving = a.emitter.RegisterAll(emit.ReceiverFunc(a.receive))
	}

	a.log.Info("application started", "name", a.name, "one_shot", a.oneShot)
	return nil
}

// AcceptInput hands control to the primary ports, in ascending priority
// order. In one-shot mode only ports that declare themselves one-shot
// compatible run. The first entrypoint error aborts the sequence.
func (a *App) AcceptInput(ctx context.Context) error {
	ctx, bindings := invariant.Ensure(ctx)
	if _, bound := bindings.Apply(ApplicationInvariant); !bound {
		bindings.Bind(ApplicationInvariant, a.name)
	}

	primaries := ports.ResolveAll[PrimaryPort](bindings, a.ports)
	orderPrimaryPorts(primaries)

	for _, p := range primaries {
		if a.oneShot && !oneShotCompatible(p) {
			a.log.Debug("skipping primary port in one-shot mode",
				"port", fmt.Sprintf("%T", p))
			continue
		}
		if c, ok := p.(Configurer); ok {
			if err := c.Configure(ctx, a); err != nil {
				return fmt.Errorf("hexcore: configure %T: %w", p, err)
			}
		}
		if err := p.Entrypoint(ctx, a); err != nil {
			a.log.Error("primary port failed",
				"port", fmt.Sprintf("%T", p), "error", err)
			return err
		}
	}
	return nil
}

// Run starts the application and accepts input from its primary ports.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}
	return a.AcceptInput(ctx)
}

// Accept dispatches evt through the engine and returns every event the
// cascade produced, in generation order. The application invariant is
// bound on the context if the caller has not bound one.
func (a *App) Accept(ctx context.Context, evt event.Event) ([]event.Event, error) {
	ctx, bindings := invariant.Ensure(ctx)
	if _, bound := bindings.Apply(ApplicationInvariant); !bound {
		bindings.Bind(ApplicationInvariant, a.name)
	}
	return a.engine.Accept(ctx, evt)
}

// Emit publishes evt to the emitter's receivers. The app itself is a
// wildcard receiver once started, so emitted events feed the dispatch
// engine in addition to any external subscribers.
func (a *App) Emit(ctx context.Context, evt event.Event) error {
	return a.emitter.Emit(ctx, evt)
}

// receive feeds emitted events into the dispatch engine. Derived events
// are already part of the cascade; they are not re-emitted.
func (a *App) receive(ctx context.Context, evt event.Event) error {
	_, err := a.Accept(ctx, evt)
	return err
}

// Close releases the runtime's resources.
func (a *App) Close() error {
	if a.receiving != nil {
		a.receiving.Unsubscribe()
		a.receiving = nil
	}
	errs := []error{a.emitter.Close()}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	return errors.Join(errs...)
}

// oneShotCompatible reports whether p may run during a single-pass run.
func oneShotCompatible(p PrimaryPort) bool {
	if o, ok := p.(OneShotAware); ok {
		return o.OneShotCompatible()
	}
	return false
}
