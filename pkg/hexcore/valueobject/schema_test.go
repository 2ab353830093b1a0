package valueobject_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpereira/hexcore/pkg/hexcore/valueobject"
)

type credentials struct {
	UserID   string
	Password string
	cached   string
}

func (c *credentials) Fields() []valueobject.Field {
	return []valueobject.Field{
		{Name: "user_id", PrimaryKey: true},
		{Name: "password", Sensitive: true},
		{Name: "cached", Internal: true},
	}
}

func (c *credentials) FieldValue(name string) any {
	switch name {
	case "user_id":
		return c.UserID
	case "password":
		return c.Password
	case "cached":
		return c.cached
	}
	return nil
}

func TestEqual(t *testing.T) {
	a := &credentials{UserID: "u-1", Password: "secret"}
	b := &credentials{UserID: "u-1", Password: "different"}
	c := &credentials{UserID: "u-2", Password: "secret"}

	// Identity is the primary key, not the full payload.
	assert.True(t, valueobject.Equal(a, b))
	assert.False(t, valueobject.Equal(a, c))
}

func TestHash(t *testing.T) {
	a := &credentials{UserID: "u-1", Password: "one"}
	b := &credentials{UserID: "u-1", Password: "two"}

	assert.Equal(t, valueobject.Hash(a), valueobject.Hash(b))
	assert.NotEqual(t, valueobject.Hash(a), valueobject.Hash(&credentials{UserID: "u-2"}))
}

func TestFormat(t *testing.T) {
	c := &credentials{UserID: "u-1", Password: "secret", cached: "scratch"}

	out := valueobject.Format(c)
	assert.Contains(t, out, "u-1")
	assert.Contains(t, out, valueobject.Masked)
	assert.NotContains(t, out, "secret")
	assert.NotContains(t, out, "scratch")
}

func TestSensitive(t *testing.T) {
	s := valueobject.NewSensitive("hunter2")

	assert.Equal(t, valueobject.Masked, s.String())
	assert.Equal(t, valueobject.Masked, fmt.Sprintf("%v", s))
	assert.Equal(t, "hunter2", s.Reveal())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}
