/*
Package hexcore provides the application runtime for event-driven
hexagonal architectures.

# Overview

hexcore wires three registries into a running application: a port
registry resolving abstract capabilities to concrete adapters, a
listener directory mapping event types to the units that react to them,
and a dispatch engine cascading the events those reactions produce.
Domain code depends only on events and ports; adapters plug in at the
boundary.

# Basic Usage

Register listeners and adapters, then run the application:

	directory := listener.NewDirectory()
	directory.Register(billing{}, "order.placed", billing{}.HandleOrderPlaced())

	registry := ports.NewRegistry()
	ports.Register[notifier.Port](registry, smtpNotifier{})

	app, err := hexcore.New("orders",
	    hexcore.WithDirectory(directory),
	    hexcore.WithPorts(registry),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
	    log.Fatal(err)
	}

Run starts the application and hands control to its primary ports, in
ascending priority order. Each primary port accepts input from the
outside (a CLI, a socket, a queue) and feeds events into the runtime
through app.Accept or app.Emit.

# Dispatch

Accept routes an event to every listener registered for its type and
recursively dispatches the events the listeners return:

	produced, err := app.Accept(ctx, event.NewAny("order.placed", payload))

The returned slice holds every derived event in generation order. An
event no listener covers fails with *dispatch.UnsupportedEventError.

# Invariants

Per-request bindings travel on the context and filter adapter
eligibility:

	bindings := invariant.New()
	bindings.Bind("tenant", "acme")
	ctx = invariant.With(ctx, bindings)

Adapters registered with ports.WithRequirement only resolve while the
required invariant is bound to the required value.

# Configuration

Runtime behavior (concurrency, cascade depth, journaling, retries) is
configurable from YAML or JSON:

	cfg, err := config.FromFile("app.yaml")
	app, err := hexcore.New("orders", hexcore.WithRuntime(config.RuntimeFromConfig(cfg)))
*/
package hexcore
