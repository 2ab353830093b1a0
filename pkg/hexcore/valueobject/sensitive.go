package valueobject

import "encoding/json"

// Sensitive wraps a value that must never appear in logs or serialized
// output. String, Format and JSON marshalling all produce the mask;
// only Reveal returns the wrapped value.
type Sensitive[T any] struct {
	value T
}

// NewSensitive wraps a value.
func NewSensitive[T any](value T) Sensitive[T] {
	return Sensitive[T]{value: value}
}

// Reveal returns the actual value. Use with care.
func (s Sensitive[T]) Reveal() T {
	return s.value
}

// String implements fmt.Stringer.
func (s Sensitive[T]) String() string {
	return Masked
}

// GoString keeps %#v output masked as well.
func (s Sensitive[T]) GoString() string {
	return Masked
}

// MarshalJSON implements json.Marshaler.
func (s Sensitive[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(Masked)
}
