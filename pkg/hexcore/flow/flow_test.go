package flow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/flow"
)

func evt(id string, previous ...string) event.Event {
	return event.NewAny("test", nil, event.WithID(id), event.WithPreviousEventIDs(previous...))
}

func TestNewFlow(t *testing.T) {
	root := evt("a")
	f := flow.New(root)

	assert.NotEmpty(t, f.ID())
	assert.Equal(t, "a", f.FirstEvent().ID())
	assert.Equal(t, []string{"a"}, f.EventIDs())
	assert.Equal(t, 1, f.Len())
}

func TestResumeExtendsChain(t *testing.T) {
	f := flow.New(evt("a"))

	_, err := f.Resume(context.Background(), evt("b", "a"))
	require.NoError(t, err)

	// Event c references b, which is in the chain.
	_, err = f.Resume(context.Background(), evt("c", "b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "b", "a"}, f.EventIDs())
	assert.Equal(t, "a", f.FirstEvent().ID())
}

func TestResumeRejectsUnrelatedEvent(t *testing.T) {
	f := flow.New(evt("a"))
	_, err := f.Resume(context.Background(), evt("b", "a"))
	require.NoError(t, err)

	_, err = f.Resume(context.Background(), evt("c", "z"))
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "a"}, f.EventIDs())
}

func TestResumeNeverAbsorbsDuplicate(t *testing.T) {
	f := flow.New(evt("a"))
	_, err := f.Resume(context.Background(), evt("b", "a"))
	require.NoError(t, err)

	// Replaying b leaves the chain untouched.
	_, err = f.Resume(context.Background(), evt("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, f.EventIDs())

	// The root event itself is already recorded.
	_, err = f.Resume(context.Background(), evt("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, f.EventIDs())
}

func TestResumeRootEventNotReabsorbed(t *testing.T) {
	f := flow.New(evt("a"))

	_, err := f.Resume(context.Background(), evt("a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, f.EventIDs())
	assert.Equal(t, 1, f.Len())
}

func TestResumeIdenticalChainDelegatesWithoutAbsorbing(t *testing.T) {
	called := false
	continuer := flow.ContinuerFunc(func(ctx context.Context, e event.Event) ([]event.Event, error) {
		called = true
		return nil, nil
	})

	f := flow.New(evt("a"), flow.WithContinuer(continuer))

	_, err := f.Resume(context.Background(), evt("a"))
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, []string{"a"}, f.EventIDs())
}

func TestContinuesIdenticalChain(t *testing.T) {
	f := flow.New(evt("a"))

	// An event whose candidate chain matches the flow exactly continues it.
	assert.True(t, f.Continues(evt("a")))
	assert.False(t, f.Continues(evt("z")))
}

func TestResumeDelegatesToContinuer(t *testing.T) {
	followUp := evt("follow", "b")
	var seen event.Event
	continuer := flow.ContinuerFunc(func(ctx context.Context, e event.Event) ([]event.Event, error) {
		seen = e
		return []event.Event{followUp}, nil
	})

	f := flow.New(evt("a"), flow.WithContinuer(continuer))

	produced, err := f.Resume(context.Background(), evt("b", "a"))
	require.NoError(t, err)
	require.Len(t, produced, 1)
	assert.Equal(t, "follow", produced[0].ID())
	require.NotNil(t, seen)
	assert.Equal(t, "b", seen.ID())

	// The event was absorbed before delegation.
	assert.Equal(t, []string{"b", "a"}, f.EventIDs())
}

func TestResumeSkipsContinuerForRejectedEvent(t *testing.T) {
	called := false
	continuer := flow.ContinuerFunc(func(ctx context.Context, e event.Event) ([]event.Event, error) {
		called = true
		return nil, nil
	})

	f := flow.New(evt("a"), flow.WithContinuer(continuer))
	_, err := f.Resume(context.Background(), evt("x", "z"))
	require.NoError(t, err)
	assert.False(t, called)
}

func TestFindLatest(t *testing.T) {
	first := event.NewAny("order.placed", nil, event.WithID("a"))
	f := flow.New(first)

	second := event.NewAny("invoice.created", nil,
		event.WithID("b"), event.WithPreviousEventIDs("a"))
	_, err := f.Resume(context.Background(), second)
	require.NoError(t, err)

	third := event.NewAny("invoice.created", nil,
		event.WithID("c"), event.WithPreviousEventIDs("b"))
	_, err = f.Resume(context.Background(), third)
	require.NoError(t, err)

	latest, ok := f.FindLatest("invoice.created")
	require.True(t, ok)
	assert.Equal(t, "c", latest.ID())

	_, ok = f.FindLatest("order.cancelled")
	assert.False(t, ok)
}

func TestWithID(t *testing.T) {
	f := flow.New(evt("a"), flow.WithID("flow-1"))
	assert.Equal(t, "flow-1", f.ID())
}
