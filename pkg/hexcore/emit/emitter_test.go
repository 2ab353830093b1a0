package emit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpereira/hexcore/pkg/hexcore/emit"
	"github.com/mpereira/hexcore/pkg/hexcore/event"
)

func collect(into *[]string, name string) emit.Receiver {
	return emit.ReceiverFunc(func(ctx context.Context, evt event.Event) error {
		*into = append(*into, name+":"+evt.ID())
		return nil
	})
}

func TestEmitDeliversByType(t *testing.T) {
	e := emit.New(emit.Config{})

	var got []string
	e.Register([]string{"order.placed"}, collect(&got, "orders"))
	e.Register([]string{"invoice.created"}, collect(&got, "invoices"))

	err := e.Emit(context.Background(), event.NewAny("order.placed", nil, event.WithID("e-1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"orders:e-1"}, got)
}

func TestEmitWildcardReceivesAll(t *testing.T) {
	e := emit.New(emit.Config{})

	var got []string
	e.RegisterAll(collect(&got, "all"))

	require.NoError(t, e.Emit(context.Background(), event.NewAny("a", nil, event.WithID("1"))))
	require.NoError(t, e.Emit(context.Background(), event.NewAny("b", nil, event.WithID("2"))))
	assert.Equal(t, []string{"all:1", "all:2"}, got)
}

func TestEmitDeliveryOrder(t *testing.T) {
	e := emit.New(emit.Config{})

	var got []string
	e.Register([]string{"x"}, collect(&got, "first"))
	e.Register([]string{"x"}, collect(&got, "second"))
	e.RegisterAll(collect(&got, "third"))

	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("1"))))
	assert.Equal(t, []string{"first:1", "second:1", "third:1"}, got)
}

func TestUnsubscribe(t *testing.T) {
	e := emit.New(emit.Config{})

	var got []string
	sub := e.Register([]string{"x"}, collect(&got, "r"))
	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("1"))))

	sub.Unsubscribe()
	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("2"))))

	assert.Equal(t, []string{"r:1"}, got)
}

func TestPauseResume(t *testing.T) {
	e := emit.New(emit.Config{})

	var got []string
	sub := e.Register([]string{"x"}, collect(&got, "r"))

	sub.Pause()
	assert.True(t, sub.IsPaused())
	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("1"))))

	sub.Resume()
	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("2"))))

	assert.Equal(t, []string{"r:2"}, got)
}

func TestEmitReceiverErrorAborts(t *testing.T) {
	e := emit.New(emit.Config{})

	boom := errors.New("boom")
	e.Register([]string{"x"}, emit.ReceiverFunc(func(ctx context.Context, evt event.Event) error {
		return boom
	}))

	err := e.Emit(context.Background(), event.NewAny("x", nil))
	assert.ErrorIs(t, err, boom)
}

func TestEmitOnErrorContinuesDelivery(t *testing.T) {
	var reported []string
	e := emit.New(emit.Config{
		OnError: func(evt event.Event, receiverID string, err error) {
			reported = append(reported, err.Error())
		},
	})

	var got []string
	e.Register([]string{"x"}, emit.ReceiverFunc(func(ctx context.Context, evt event.Event) error {
		return errors.New("boom")
	}))
	e.Register([]string{"x"}, collect(&got, "second"))

	err := e.Emit(context.Background(), event.NewAny("x", nil, event.WithID("1")))
	require.NoError(t, err)
	assert.Equal(t, []string{"boom"}, reported)
	assert.Equal(t, []string{"second:1"}, got)
}

func TestEmitDeduplicates(t *testing.T) {
	e := emit.New(emit.Config{DeduplicateTTL: time.Minute})

	var got []string
	e.Register([]string{"x"}, collect(&got, "r"))

	evt := event.NewAny("x", nil, event.WithID("dup"))
	require.NoError(t, e.Emit(context.Background(), evt))
	require.NoError(t, e.Emit(context.Background(), evt))

	assert.Equal(t, []string{"r:dup"}, got)
}

func TestEmitAfterClose(t *testing.T) {
	e := emit.New(emit.Config{})
	require.NoError(t, e.Close())

	err := e.Emit(context.Background(), event.NewAny("x", nil))
	assert.ErrorIs(t, err, emit.ErrEmitterClosed)
}

func TestRegisterAfterCloseIsInert(t *testing.T) {
	e := emit.New(emit.Config{})
	require.NoError(t, e.Close())

	var got []string
	sub := e.Register([]string{"x"}, collect(&got, "late"))
	require.NotNil(t, sub)

	// The subscription is safe to use even though nothing was registered.
	sub.Pause()
	assert.False(t, sub.IsPaused())
	sub.Resume()
	sub.Unsubscribe()
	assert.Empty(t, got)
}

func TestRegisterNilReceiverIsInert(t *testing.T) {
	e := emit.New(emit.Config{})

	sub := e.Register([]string{"x"}, nil)
	require.NotNil(t, sub)
	sub.Unsubscribe()

	require.NoError(t, e.Emit(context.Background(), event.NewAny("x", nil)))
}
