// Package invariant provides execution-scoped key/value bindings used to
// filter adapter eligibility and enrich observability output.
//
// An invariant is a value bound for the duration of one logical request -
// a tenant id, a request id, an application identity. Bindings are carried
// explicitly on the context.Context of the request rather than read from
// any process-global state, and must never be shared across concurrent
// logical requests.
package invariant

// Key identifies an invariant type (e.g. "tenant", "application").
type Key string

// Requirement declares that an adapter is only eligible while the given
// invariant is bound to the given value.
type Requirement struct {
	Key   Key
	Value any
}

// Bindings holds the invariant values of one logical request.
//
// A Bindings value is confined to a single execution context: bind at the
// boundary, read during the request, discard when the request ends. It is
// not safe for concurrent mutation.
type Bindings struct {
	// byScope maps a scope (nil for the global scope) to its bindings.
	byScope map[any]map[Key]any
}

// New creates an empty Bindings.
func New() *Bindings {
	return &Bindings{byScope: make(map[any]map[Key]any)}
}

// Bind binds an invariant in the global scope.
func (b *Bindings) Bind(key Key, value any) {
	b.BindIn(nil, key, value)
}

// BindIn binds an invariant in the given scope. A nil scope is the global
// scope consulted when no scope-specific binding exists.
func (b *Bindings) BindIn(scope any, key Key, value any) {
	bound := b.byScope[scope]
	if bound == nil {
		bound = make(map[Key]any)
		b.byScope[scope] = bound
	}
	bound[key] = value
}

// Apply looks up an invariant in the global scope.
func (b *Bindings) Apply(key Key) (any, bool) {
	return b.ApplyIn(nil, key)
}

// ApplyIn looks up an invariant in the given scope, falling back to the
// global scope if the scope has no bindings. A nil receiver has no bindings.
func (b *Bindings) ApplyIn(scope any, key Key) (any, bool) {
	if b == nil {
		return nil, false
	}
	bound, ok := b.byScope[scope]
	if !ok {
		bound = b.byScope[nil]
	}
	v, ok := bound[key]
	return v, ok
}

// ApplyAll returns all bindings visible from the given scope. The scope's
// own bindings are returned if present, otherwise the global ones. The
// result is a copy.
func (b *Bindings) ApplyAll(scope any) map[Key]any {
	if b == nil {
		return map[Key]any{}
	}
	bound, ok := b.byScope[scope]
	if !ok {
		bound = b.byScope[nil]
	}
	out := make(map[Key]any, len(bound))
	for k, v := range bound {
		out[k] = v
	}
	return out
}

// Satisfies reports whether every requirement's invariant is currently
// bound (in the given scope, or globally) to the required value.
// An empty requirement list always matches.
func (b *Bindings) Satisfies(scope any, reqs []Requirement) bool {
	for _, req := range reqs {
		v, ok := b.ApplyIn(scope, req.Key)
		if !ok || v != req.Value {
			return false
		}
	}
	return true
}

// Clone returns an independent copy suitable for handing to a forked
// execution context.
func (b *Bindings) Clone() *Bindings {
	out := New()
	if b == nil {
		return out
	}
	for scope, bound := range b.byScope {
		target := make(map[Key]any, len(bound))
		for k, v := range bound {
			target[k] = v
		}
		out.byScope[scope] = target
	}
	return out
}
