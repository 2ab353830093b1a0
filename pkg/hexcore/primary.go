package hexcore

import (
	"context"
	"sort"
)

// DefaultPrimaryPortPriority is assumed for primary ports that do not
// declare one. Lower values run first.
const DefaultPrimaryPortPriority = 100

// PrimaryPort accepts input from the outside on behalf of the
// application. Implementations are registered on the port registry and
// invoked by AcceptInput in ascending priority order.
type PrimaryPort interface {
	Entrypoint(ctx context.Context, app *App) error
}

// Prioritized is optionally implemented by primary ports that declare a
// priority. Lower values run first; the default is
// DefaultPrimaryPortPriority.
type Prioritized interface {
	Priority() int
}

// OneShotAware is optionally implemented by primary ports to declare
// whether they may run when the application performs a single pass and
// exits. Ports that listen for future outside messages should return
// false. Ports without the method are skipped in one-shot mode.
type OneShotAware interface {
	OneShotCompatible() bool
}

// Configurer is optionally implemented by primary ports that need setup
// before their entrypoint runs.
type Configurer interface {
	Configure(ctx context.Context, app *App) error
}

// primaryPriority returns the port's declared priority or the default.
func primaryPriority(p PrimaryPort) int {
	if pr, ok := p.(Prioritized); ok {
		return pr.Priority()
	}
	return DefaultPrimaryPortPriority
}

// orderPrimaryPorts sorts ports by ascending priority, keeping
// resolution order for ties.
func orderPrimaryPorts(ports []PrimaryPort) {
	sort.SliceStable(ports, func(i, j int) bool {
		return primaryPriority(ports[i]) < primaryPriority(ports[j])
	})
}
