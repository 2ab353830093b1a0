package hexcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpereira/hexcore/pkg/hexcore"
	"github.com/mpereira/hexcore/pkg/hexcore/dispatch"
	"github.com/mpereira/hexcore/pkg/hexcore/event"
	"github.com/mpereira/hexcore/pkg/hexcore/invariant"
	"github.com/mpereira/hexcore/pkg/hexcore/listener"
	"github.com/mpereira/hexcore/pkg/hexcore/logging"
	"github.com/mpereira/hexcore/pkg/hexcore/ports"
	"github.com/mpereira/hexcore/pkg/hexcore/store"
)

type billingUnit struct{}

func (billingUnit) Name() string  { return "billing" }
func (billingUnit) Priority() int { return 10 }

// notifier is a sample secondary port.
type notifier interface {
	Notify(msg string) error
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(msg string) error {
	n.messages = append(n.messages, msg)
	return nil
}

type orderedPort struct {
	name     string
	priority int
	oneShot  bool
	calls    *[]string
}

func (p orderedPort) Priority() int           { return p.priority }
func (p orderedPort) OneShotCompatible() bool { return p.oneShot }

func (p orderedPort) Entrypoint(ctx context.Context, app *hexcore.App) error {
	*p.calls = append(*p.calls, p.name)
	return nil
}

func newOrderApp(t *testing.T, opts ...hexcore.Option) *hexcore.App {
	t.Helper()

	d := listener.NewDirectory()
	d.Register(billingUnit{}, "order.placed",
		event.HandlerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
			invoice := event.NewAnyFromParent(evt, "invoice.created", nil)
			return []event.Event{invoice}, nil
		}))
	d.Register(billingUnit{}, "invoice.created",
		event.HandlerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
			return nil, nil
		}))

	opts = append([]hexcore.Option{hexcore.WithDirectory(d)}, opts...)
	app, err := hexcore.New("orders", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestNewDefaults(t *testing.T) {
	app, err := hexcore.New("orders")
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "orders", app.Name())
	assert.NotNil(t, app.Ports())
	assert.NotNil(t, app.Directory())
	assert.NotNil(t, app.Engine())
	assert.NotNil(t, app.Emitter())
}

func TestAcceptCascades(t *testing.T) {
	app := newOrderApp(t)
	require.NoError(t, app.Start(context.Background()))

	placed := event.NewAny("order.placed", map[string]any{"order_id": "o-1"})
	produced, err := app.Accept(context.Background(), placed)
	require.NoError(t, err)

	require.Len(t, produced, 1)
	assert.Equal(t, "invoice.created", produced[0].Type())
	assert.Equal(t, []string{placed.ID()}, produced[0].PreviousEventIDs())
}

func TestEmitFeedsDispatch(t *testing.T) {
	journal := store.NewMemoryStore()
	app := newOrderApp(t, hexcore.WithJournal(journal))
	require.NoError(t, app.Start(context.Background()))

	err := app.Emit(context.Background(), event.NewAny("order.placed", nil, event.WithID("e-1")))
	require.NoError(t, err)

	// Both the emitted event and its derived invoice were journaled.
	rec, err := journal.Get("e-1")
	require.NoError(t, err)
	assert.Equal(t, "order.placed", rec.EventType)

	n, err := journal.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStartResolvesLoggingSink(t *testing.T) {
	app := newOrderApp(t)

	sink := logging.NewSlogSink(nil)
	ports.Register[logging.Sink](app.Ports(), sink)

	require.NoError(t, app.Start(context.Background()))
	assert.Equal(t, sink, app.Log())
}

func TestRequirePort(t *testing.T) {
	app := newOrderApp(t, hexcore.RequirePort[notifier]())

	err := app.Start(context.Background())
	assert.ErrorIs(t, err, hexcore.ErrMissingAdapter)

	ports.Register[notifier](app.Ports(), &recordingNotifier{})
	assert.NoError(t, app.Start(context.Background()))
}

func TestAcceptInputPriorityOrder(t *testing.T) {
	app := newOrderApp(t)

	var calls []string
	ports.Register[hexcore.PrimaryPort](app.Ports(),
		orderedPort{name: "later", priority: 200, oneShot: true, calls: &calls})
	ports.Register[hexcore.PrimaryPort](app.Ports(),
		orderedPort{name: "earlier", priority: 50, oneShot: true, calls: &calls})

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, []string{"earlier", "later"}, calls)
}

func TestAcceptInputOneShotFiltering(t *testing.T) {
	app := newOrderApp(t, hexcore.WithOneShot())

	var calls []string
	ports.Register[hexcore.PrimaryPort](app.Ports(),
		orderedPort{name: "cli", priority: 10, oneShot: true, calls: &calls})
	ports.Register[hexcore.PrimaryPort](app.Ports(),
		listeningPort{calls: &calls})

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, []string{"cli"}, calls)
}

// listeningPort waits for future outside messages and declares no
// one-shot compatibility.
type listeningPort struct {
	calls *[]string
}

func (p listeningPort) Entrypoint(ctx context.Context, app *hexcore.App) error {
	*p.calls = append(*p.calls, "listening")
	return nil
}

type failingPort struct{}

func (failingPort) Entrypoint(ctx context.Context, app *hexcore.App) error {
	return errors.New("socket unavailable")
}

func (failingPort) OneShotCompatible() bool { return true }

func TestAcceptInputPortError(t *testing.T) {
	app := newOrderApp(t)

	ports.Register[hexcore.PrimaryPort](app.Ports(), failingPort{})

	err := app.Run(context.Background())
	assert.EqualError(t, err, "socket unavailable")
}

type configuredPort struct {
	configured *bool
}

func (p configuredPort) Configure(ctx context.Context, app *hexcore.App) error {
	*p.configured = true
	return nil
}

func (p configuredPort) Entrypoint(ctx context.Context, app *hexcore.App) error {
	return nil
}

func (configuredPort) OneShotCompatible() bool { return true }

func TestAcceptInputConfiguresPorts(t *testing.T) {
	app := newOrderApp(t)

	configured := false
	ports.Register[hexcore.PrimaryPort](app.Ports(), configuredPort{configured: &configured})

	require.NoError(t, app.Run(context.Background()))
	assert.True(t, configured)
}

func TestAcceptBindsApplicationInvariant(t *testing.T) {
	d := listener.NewDirectory()

	var seen any
	d.Register(billingUnit{}, "order.placed",
		event.HandlerFunc(func(ctx context.Context, evt event.Event) ([]event.Event, error) {
			seen, _ = invariant.From(ctx).Apply(hexcore.ApplicationInvariant)
			return nil, nil
		}))

	app, err := hexcore.New("orders", hexcore.WithDirectory(d))
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Accept(context.Background(), event.NewAny("order.placed", nil))
	require.NoError(t, err)
	assert.Equal(t, "orders", seen)
}

func TestAcceptUnsupportedEvent(t *testing.T) {
	app := newOrderApp(t)

	_, err := app.Accept(context.Background(), event.NewAny("order.cancelled", nil))
	var unsupported *dispatch.UnsupportedEventError
	assert.ErrorAs(t, err, &unsupported)
}
