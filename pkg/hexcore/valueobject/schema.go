// Package valueobject provides explicit field-metadata declarations for
// domain value types.
//
// A value type declares, once, which of its fields participate in identity,
// which are internal bookkeeping, and which are sensitive. The declaration
// is an ordinary method returning a static table - there is no runtime
// struct scanning.
package valueobject

import (
	"fmt"
	"sort"
	"strings"
)

// Field describes a single declared field of a value type.
type Field struct {
	// Name is the field name as it appears in formatted output.
	Name string

	// PrimaryKey marks the field as part of the value's identity.
	// Equality and hashing consider primary-key fields only.
	PrimaryKey bool

	// Internal marks bookkeeping fields excluded from formatted output.
	Internal bool

	// Sensitive marks fields whose values are masked in formatted output.
	Sensitive bool
}

// Describer is implemented by value types that declare their field metadata.
type Describer interface {
	// Fields returns the declared field table. The returned slice must be
	// stable for the lifetime of the process.
	Fields() []Field

	// FieldValue returns the current value of a declared field.
	FieldValue(name string) any
}

// Masked replaces sensitive values in formatted output.
const Masked = "[hidden]"

// PrimaryKey returns the names of the primary-key fields, in declaration order.
func PrimaryKey(d Describer) []string {
	var keys []string
	for _, f := range d.Fields() {
		if f.PrimaryKey {
			keys = append(keys, f.Name)
		}
	}
	return keys
}

// Equal reports whether two value objects are the same value.
// Values are equal when their primary-key fields are equal; types with no
// declared primary key are only equal to themselves.
func Equal(a, b Describer) bool {
	if a == nil || b == nil {
		return a == b
	}
	keys := PrimaryKey(a)
	if len(keys) == 0 || len(keys) != len(PrimaryKey(b)) {
		return a == b
	}
	for _, k := range keys {
		if a.FieldValue(k) != b.FieldValue(k) {
			return false
		}
	}
	return true
}

// Hash returns a stable string key derived from the primary-key fields,
// suitable for map keys and deduplication.
func Hash(d Describer) string {
	keys := PrimaryKey(d)
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, d.FieldValue(k)))
	}
	return strings.Join(parts, ";")
}

// Format renders the value object for logs and diagnostics.
// Internal fields are omitted and sensitive fields are masked.
func Format(d Describer) string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	for _, f := range d.Fields() {
		if f.Internal {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(f.Name)
		b.WriteString(": ")
		if f.Sensitive {
			b.WriteString(Masked)
		} else {
			fmt.Fprintf(&b, "%v", d.FieldValue(f.Name))
		}
	}
	b.WriteByte('}')
	return b.String()
}
