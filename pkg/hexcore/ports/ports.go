// Package ports provides the registry resolving abstract capabilities
// (ports) to concrete adapters at runtime.
//
// A port is an ordinary Go interface type; an adapter is a value or
// factory implementing it. Mappings are populated once at startup through
// explicit Register calls - there is no scanning - and read freely
// afterwards. Resolution is deterministic for a fixed mapping, fixed
// invariant bindings and fixed priorities; ties break by discovery order.
package ports

import (
	"math"
	"reflect"
	"sort"

	"github.com/mpereira/hexcore/pkg/hexcore/invariant"
	"github.com/mpereira/hexcore/pkg/hexcore/registry"
)

// PriorityDefault is assumed for adapters that declare no priority.
// It is the least-preferred value, so adapters that care about their
// position always sort ahead of those that don't.
const PriorityDefault = math.MaxInt32

// Prioritized is optionally implemented by adapter instances.
// Lower values are preferred.
type Prioritized interface {
	Priority() int
}

// Key returns the registry key for port type P.
func Key[P any]() reflect.Type {
	return reflect.TypeOf((*P)(nil)).Elem()
}

// Factory constructs an adapter, receiving the owning application handle.
type Factory func(app any) any

// candidate is one registered adapter for a port.
type candidate struct {
	instance        any
	factory         Factory
	defaultPriority int
	hasDefault      bool
	requires        []invariant.Requirement
}

// Option configures a registration.
type Option func(*candidate)

// WithDefaultPriority declares a priority resolvable without instantiation.
func WithDefaultPriority(p int) Option {
	return func(c *candidate) {
		c.defaultPriority = p
		c.hasDefault = true
	}
}

// WithRequirement restricts the adapter to contexts where the invariant
// is bound to the given value. May be repeated.
func WithRequirement(key invariant.Key, value any) Option {
	return func(c *candidate) {
		c.requires = append(c.requires, invariant.Requirement{Key: key, Value: value})
	}
}

// Registry maps ports to their candidate adapters.
type Registry struct {
	mappings *registry.Registry[reflect.Type, []candidate]
	app      any
}

// NewRegistry creates an empty port registry.
func NewRegistry() *Registry {
	return &Registry{
		mappings: registry.New[reflect.Type, []candidate](),
	}
}

// BindApp sets the application handle passed to adapter factories.
func (r *Registry) BindApp(app any) {
	r.app = app
}

// App returns the bound application handle.
func (r *Registry) App() any {
	return r.app
}

// Ports returns the port types with at least one registered candidate.
func (r *Registry) Ports() []reflect.Type {
	return r.mappings.Keys()
}

// Reinitialize discards all mappings. Intended for tests.
func (r *Registry) Reinitialize() {
	r.mappings.Reset()
}

// Register adds a pre-built adapter instance for port P.
func Register[P any](r *Registry, instance P, opts ...Option) {
	c := candidate{instance: instance}
	for _, opt := range opts {
		opt(&c)
	}
	appendCandidate(r, Key[P](), c)
}

// RegisterFactory adds an adapter constructed on resolution for port P.
func RegisterFactory[P any](r *Registry, factory func(app any) P, opts ...Option) {
	c := candidate{factory: func(app any) any { return factory(app) }}
	for _, opt := range opts {
		opt(&c)
	}
	appendCandidate(r, Key[P](), c)
}

func appendCandidate(r *Registry, port reflect.Type, c candidate) {
	r.mappings.Update(port, func(cur []candidate) []candidate {
		return append(cur, c)
	})
}

// priority resolves a candidate's priority: the declared default wins,
// otherwise the materialized adapter is asked, otherwise least preferred.
func (r *Registry) priority(c candidate, materialized any) int {
	if c.hasDefault {
		return c.defaultPriority
	}
	if p, ok := materialized.(Prioritized); ok {
		return p.Priority()
	}
	return PriorityDefault
}

// materialize returns the adapter value, invoking the factory if needed.
func (r *Registry) materialize(c candidate) any {
	if c.factory != nil {
		return c.factory(r.app)
	}
	return c.instance
}

// ResolveAll resolves port P to all eligible adapters, best first.
// Adapters whose invariant requirements are not satisfied by the bindings
// carried on ctx are excluded. An unregistered port yields an empty
// result, not an error.
func ResolveAll[P any](bindings *invariant.Bindings, r *Registry) []P {
	candidates, _ := r.mappings.Get(Key[P]())

	type ranked struct {
		value    any
		priority int
	}

	eligible := make([]ranked, 0, len(candidates))
	for _, c := range candidates {
		if !bindings.Satisfies(nil, c.requires) {
			continue
		}
		v := r.materialize(c)
		eligible = append(eligible, ranked{value: v, priority: r.priority(c, v)})
	}

	// Stable: ties keep discovery order.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].priority < eligible[j].priority
	})

	out := make([]P, 0, len(eligible))
	for _, e := range eligible {
		out = append(out, e.value.(P))
	}
	return out
}

// Resolve resolves port P to the best eligible adapter.
// The second return is false when no adapter is eligible - a valid,
// cheap-to-check outcome, not an error.
func Resolve[P any](bindings *invariant.Bindings, r *Registry) (P, bool) {
	all := ResolveAll[P](bindings, r)
	if len(all) == 0 {
		var zero P
		return zero, false
	}
	return all[0], true
}

// ResolveFirst is Resolve under the name used at singular-port call sites.
func ResolveFirst[P any](bindings *invariant.Bindings, r *Registry) (P, bool) {
	return Resolve[P](bindings, r)
}
