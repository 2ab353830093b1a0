package dispatch

import (
	"fmt"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
)

// UnsupportedEventError reports an event dispatched with zero registered
// listeners. It surfaces to the caller of Accept: a published event nobody
// can react to is an application error, not a silent no-op.
type UnsupportedEventError struct {
	EventID   string
	EventType string
}

// Error implements the error interface.
func (e *UnsupportedEventError) Error() string {
	return fmt.Sprintf("unsupported event: %s (%s)", e.EventType, e.EventID)
}

// NewUnsupportedEventError creates an UnsupportedEventError for evt.
func NewUnsupportedEventError(evt event.Event) *UnsupportedEventError {
	return &UnsupportedEventError{
		EventID:   evt.ID(),
		EventType: evt.Type(),
	}
}

// MaxDepthError reports a cascade that exceeded the configured generation
// depth guard. Only returned when WithMaxDepth is set.
type MaxDepthError struct {
	EventID   string
	EventType string
	Depth     int
}

// Error implements the error interface.
func (e *MaxDepthError) Error() string {
	return fmt.Sprintf("max cascade depth exceeded (%d) at event %s (%s)", e.Depth, e.EventType, e.EventID)
}
