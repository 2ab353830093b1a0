package invariant

import "context"

type contextKey struct{}

// With returns a context carrying the given bindings.
func With(ctx context.Context, b *Bindings) context.Context {
	return context.WithValue(ctx, contextKey{}, b)
}

// From returns the bindings carried by ctx, or nil if none are bound.
// A nil *Bindings is safe for all lookups and reports every invariant
// as absent.
func From(ctx context.Context) *Bindings {
	b, _ := ctx.Value(contextKey{}).(*Bindings)
	return b
}

// Ensure returns ctx's bindings, creating and attaching an empty Bindings
// first if the context carries none. Used at request boundaries.
func Ensure(ctx context.Context) (context.Context, *Bindings) {
	if b := From(ctx); b != nil {
		return ctx, b
	}
	b := New()
	return With(ctx, b), b
}
