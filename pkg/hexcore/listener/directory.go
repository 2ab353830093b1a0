// Package listener provides the directory mapping event types to the
// listener units registered to react to them.
//
// Registration is explicit: each listener module calls Register (and
// optionally Inherit) during process initialization. The directory is
// effectively immutable afterwards and safe for unsynchronized reads.
package listener

import (
	"sort"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/registry"
)

// DefaultPriority is assumed for units that do not declare one.
const DefaultPriority = 100

// Unit identifies a listener unit registered for one or more event types.
type Unit interface {
	// Name uniquely identifies the unit within the directory.
	Name() string
}

// Prioritized is optionally implemented by units that declare a priority.
// Lower values are invoked first.
type Prioritized interface {
	Priority() int
}

// UnitPriority returns the unit's declared priority, or DefaultPriority.
func UnitPriority(u Unit) int {
	if p, ok := u.(Prioritized); ok {
		return p.Priority()
	}
	return DefaultPriority
}

// handlerKey addresses one (unit, event type) registration.
type handlerKey struct {
	unit      string
	eventType string
}

// Directory is the static mapping from event types to listener units.
type Directory struct {
	byType   *registry.Registry[string, []Unit]
	handlers *registry.Registry[handlerKey, event.Handler]
}

// NewDirectory creates an empty listener directory.
func NewDirectory() *Directory {
	return &Directory{
		byType:   registry.New[string, []Unit](),
		handlers: registry.New[handlerKey, event.Handler](),
	}
}

// Register associates a handler with (unit, eventType).
// Re-registering the same pair is a no-op for the unit list, so the
// directory result is identical whether a module registers once or twice.
func (d *Directory) Register(unit Unit, eventType string, handler event.Handler) {
	d.handlers.Register(handlerKey{unit: unit.Name(), eventType: eventType}, handler)
	d.byType.Update(eventType, func(units []Unit) []Unit {
		for _, u := range units {
			if u.Name() == unit.Name() {
				return units
			}
		}
		return append(units, unit)
	})
}

// Inherit copies parent's current registrations to child, giving the
// specialized unit the shared handlers. Resolved at registration time:
// registrations added to parent afterwards are not inherited. A handler
// child already registered for a type is kept.
func (d *Directory) Inherit(child, parent Unit) {
	d.handlers.Range(func(key handlerKey, handler event.Handler) bool {
		if key.unit != parent.Name() {
			return true
		}
		childKey := handlerKey{unit: child.Name(), eventType: key.eventType}
		if !d.handlers.Has(childKey) {
			d.Register(child, key.eventType, handler)
		}
		return true
	})
}

// ListenersFor returns the units registered for eventType, ordered by
// ascending priority. Ties keep registration order.
func (d *Directory) ListenersFor(eventType string) []Unit {
	units, ok := d.byType.Get(eventType)
	if !ok {
		return nil
	}
	out := make([]Unit, len(units))
	copy(out, units)
	sort.SliceStable(out, func(i, j int) bool {
		return UnitPriority(out[i]) < UnitPriority(out[j])
	})
	return out
}

// HandlerFor returns the handler registered for (unit, eventType).
func (d *Directory) HandlerFor(unit Unit, eventType string) (event.Handler, bool) {
	return d.handlers.Get(handlerKey{unit: unit.Name(), eventType: eventType})
}

// EventTypes returns all event types with at least one registered unit.
func (d *Directory) EventTypes() []string {
	return d.byType.Keys()
}

// Reset discards all registrations. Intended for tests.
func (d *Directory) Reset() {
	d.byType.Reset()
	d.handlers.Reset()
}
