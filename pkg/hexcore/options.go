package hexcore

import (
	"log/slog"
	"os"

	"github.com/mpereira/hexcore/pkg/hexcore/config"
	"github.com/mpereira/hexcore/pkg/hexcore/dispatch"
	"github.com/mpereira/hexcore/pkg/hexcore/invariant"
	"github.com/mpereira/hexcore/pkg/hexcore/listener"
	"github.com/mpereira/hexcore/pkg/hexcore/ports"
	"github.com/mpereira/hexcore/pkg/hexcore/store"
)

// Option configures an App.
type Option func(*App) error

// WithDirectory sets the listener directory. Default: a new empty one.
func WithDirectory(d *listener.Directory) Option {
	return func(a *App) error {
		if d != nil {
			a.directory = d
		}
		return nil
	}
}

// WithPorts sets the port registry. Default: a new empty one.
func WithPorts(r *ports.Registry) Option {
	return func(a *App) error {
		if r != nil {
			a.ports = r
		}
		return nil
	}
}

// WithLogger sets the structured logger used by the runtime and the
// dispatch engine. Default: slog on stderr at the configured level.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		if logger != nil {
			a.slogger = logger
		}
		return nil
	}
}

// WithOneShot makes Run perform a single pass over the one-shot
// compatible primary ports and return, instead of handing control to
// ports that listen for future input.
func WithOneShot() Option {
	return func(a *App) error {
		a.oneShot = true
		return nil
	}
}

// WithJournal records every dispatched event in the given store. The
// App closes the store on Close.
func WithJournal(s store.Store) Option {
	return func(a *App) error {
		a.journal = s
		return nil
	}
}

// WithEngineOptions appends options passed to the dispatch engine.
func WithEngineOptions(opts ...dispatch.Option) Option {
	return func(a *App) error {
		a.engineOpts = append(a.engineOpts, opts...)
		return nil
	}
}

// WithRuntime applies settings extracted from configuration: log level,
// dispatch concurrency and depth, journaling, emitter deduplication and
// handler retries.
func WithRuntime(rt config.Runtime) Option {
	return func(a *App) error {
		a.slogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: rt.LogLevel,
		}))
		if rt.Concurrency > 0 {
			a.engineOpts = append(a.engineOpts, dispatch.WithConcurrency(rt.Concurrency))
		}
		if rt.MaxDepth > 0 {
			a.engineOpts = append(a.engineOpts, dispatch.WithMaxDepth(rt.MaxDepth))
		}
		if rt.Retry.MaxAttempts > 1 {
			a.engineOpts = append(a.engineOpts, dispatch.WithHandlerRetry(rt.Retry))
		}
		a.dedupeTTL = rt.DeduplicateTTL
		if rt.JournalPath != "" {
			journal, err := store.NewSQLiteStore(rt.JournalPath)
			if err != nil {
				return err
			}
			a.journal = journal
		}
		return nil
	}
}

// RequirePort makes Start fail unless at least one adapter resolves for
// port P. The missing port is logged at critical level.
func RequirePort[P any]() Option {
	return func(a *App) error {
		a.required = append(a.required, requiredPort{
			name: ports.Key[P]().String(),
			resolves: func(b *invariant.Bindings, r *ports.Registry) bool {
				_, ok := ports.Resolve[P](b, r)
				return ok
			},
		})
		return nil
	}
}
