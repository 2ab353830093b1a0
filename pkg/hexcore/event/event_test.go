package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/valueobject"
)

func TestNew(t *testing.T) {
	evt := event.New("order.placed", map[string]any{"order_id": "o-1"})

	assert.NotEmpty(t, evt.ID())
	assert.Equal(t, "order.placed", evt.Type())
	assert.False(t, evt.Timestamp().IsZero())
	assert.Empty(t, evt.PreviousEventIDs())
}

func TestNewOptions(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	evt := event.New("order.placed", "payload",
		event.WithID("e-1"),
		event.WithTimestamp(ts),
		event.WithPreviousEventIDs("e-0"),
	)

	assert.Equal(t, "e-1", evt.ID())
	assert.Equal(t, ts, evt.Timestamp())
	assert.Equal(t, []string{"e-0"}, evt.PreviousEventIDs())
}

func TestNewFromParent(t *testing.T) {
	parent := event.New("order.placed", "p", event.WithID("e-1"))
	child := event.NewFromParent(parent, "invoice.created", "c")

	assert.Equal(t, []string{"e-1"}, child.PreviousEventIDs())

	// Grandchild carries the full chain, most recent first.
	grandchild := event.NewFromParent(child, "invoice.sent", "g")
	assert.Equal(t, []string{child.ID(), "e-1"}, grandchild.PreviousEventIDs())
}

func TestSame(t *testing.T) {
	a := event.New("order.placed", "one", event.WithID("e-1"))
	b := event.New("order.cancelled", "completely different payload", event.WithID("e-1"))
	c := event.New("order.placed", "one")

	// Identity is the id, not the payload or type.
	assert.True(t, event.Same(a, b))
	assert.False(t, event.Same(a, c))
	assert.False(t, event.Same(a, nil))
	assert.True(t, event.Same(nil, nil))
}

func TestPreviousEventIDsCopy(t *testing.T) {
	evt := event.NewAny("x", nil, event.WithPreviousEventIDs("a", "b"))

	ids := evt.PreviousEventIDs()
	ids[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, evt.PreviousEventIDs())
}

// signup carries a credential that must never appear in logs.
type signup struct {
	User     string
	Password string
}

func (s signup) Fields() []valueobject.Field {
	return []valueobject.Field{
		{Name: "user", PrimaryKey: true},
		{Name: "password", Sensitive: true},
	}
}

func (s signup) FieldValue(name string) any {
	switch name {
	case "user":
		return s.User
	case "password":
		return s.Password
	}
	return nil
}

func TestStringMasksSensitivePayloadFields(t *testing.T) {
	evt := event.New("user.signed_up", signup{User: "alex", Password: "hunter2"},
		event.WithID("e-1"))

	rendered := evt.String()
	assert.Contains(t, rendered, "e-1")
	assert.Contains(t, rendered, "user: alex")
	assert.Contains(t, rendered, valueobject.Masked)
	assert.NotContains(t, rendered, "hunter2")
}

func TestStringOmitsCausalBookkeeping(t *testing.T) {
	evt := event.NewAny("x", "data",
		event.WithID("e-1"), event.WithPreviousEventIDs("e-0"))

	assert.NotContains(t, evt.String(), "e-0")
}

func TestJSONRoundTrip(t *testing.T) {
	evt := event.New("order.placed", map[string]any{"order_id": "o-1"},
		event.WithID("e-1"),
		event.WithPreviousEventIDs("e-0"),
	)

	data, err := evt.MarshalJSON()
	require.NoError(t, err)

	var decoded event.Base[map[string]any]
	require.NoError(t, decoded.UnmarshalJSON(data))

	assert.Equal(t, "e-1", decoded.ID())
	assert.Equal(t, "order.placed", decoded.Type())
	assert.Equal(t, []string{"e-0"}, decoded.PreviousEventIDs())
	assert.Equal(t, "o-1", decoded.TypedData()["order_id"])
}
