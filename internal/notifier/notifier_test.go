package notifier

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/logger"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
)

func newTestEmitter() (*Emitter, *scope.Environment) {
	env := scope.NewEnvironment(scope.New(scope.DefaultGlobal), scope.New(scope.SharedProcess))
	return New(env), env
}

// captureLogs redirects the default logger for the duration of the test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := logger.Default()
	logger.SetDefault(logger.New(logger.LevelDebug, &buf))
	t.Cleanup(func() { logger.SetDefault(previous) })
	return &buf
}

func emitKey(n *Emitter, key string) {
	n.Emit(event.StorageEventInit{Key: event.String(key), NewValue: event.String("v")})
}

func TestEmitter_OnEmit(t *testing.T) {
	n, _ := newTestEmitter()
	rec := NewRecorder(nil)
	n.On(rec)

	n.Emit(event.StorageEventInit{
		Key:      event.String("a"),
		NewValue: event.String("1"),
		URL:      "http://localhost/",
	})

	events := rec.Events()
	require.Len(t, events, 1)

	evt := events[0]
	assert.Equal(t, event.TypeStorage, evt.Type())
	key, _ := evt.Key()
	assert.Equal(t, "a", key)
	_, ok := evt.OldValue()
	assert.False(t, ok, "OldValue() should be absent")
	assert.Equal(t, "http://localhost/", evt.URL())
}

func TestEmitter_IdempotentOn(t *testing.T) {
	n, _ := newTestEmitter()
	rec := NewRecorder(nil)

	n.On(rec)
	n.On(rec)
	n.On(rec, Options{Capture: true})

	assert.Equal(t, 1, n.ListenerCount())

	emitKey(n, "a")
	assert.Len(t, rec.Events(), 1)
}

// taggedListener is a value listener that cannot be used as a map key
type taggedListener struct {
	tags []string
}

func (taggedListener) HandleStorageEvent(*event.StorageEvent) error { return nil }

func TestEmitter_NonComparableListener(t *testing.T) {
	logs := captureLogs(t)
	n, _ := newTestEmitter()
	l := taggedListener{tags: []string{"x"}}

	require.NotPanics(t, func() {
		n.On(l)
		n.Off(l)
	})
	assert.Equal(t, 0, n.ListenerCount())
	assert.Contains(t, logs.String(), "Storage event listener is not comparable")
	assert.Contains(t, logs.String(), "notifier.taggedListener")

	// a pointer to the same type has an identity and registers fine
	n.On(&l)
	assert.Equal(t, 1, n.ListenerCount())
}

func TestEmitter_Off(t *testing.T) {
	n, _ := newTestEmitter()
	rec := NewRecorder(nil)
	other := NewRecorder(nil)

	n.Off(rec) // not registered
	n.On(rec, Options{Capture: true})
	n.On(other)
	n.Off(rec)
	n.Off(rec)

	emitKey(n, "a")

	assert.Empty(t, rec.Events(), "removed listener invoked")
	assert.Len(t, other.Events(), 1)
}

func TestEmitter_Clear(t *testing.T) {
	n, _ := newTestEmitter()
	recs := []*Recorder{NewRecorder(nil), NewRecorder(nil), NewRecorder(nil)}
	for _, r := range recs {
		n.On(r)
	}

	n.Clear()
	emitKey(n, "a")

	assert.Equal(t, 0, n.ListenerCount())
	for i, r := range recs {
		assert.Empty(t, r.Events(), "listener %d invoked after Clear", i)
	}

	// Listeners can be registered again after Clear
	n.On(recs[0])
	emitKey(n, "b")
	assert.Len(t, recs[0].Events(), 1)
}

func TestEmitter_Once(t *testing.T) {
	n, _ := newTestEmitter()
	rec := NewRecorder(nil)
	n.On(rec, Options{Once: true})

	emitKey(n, "a")
	emitKey(n, "b")

	assert.Len(t, rec.Events(), 1)
	assert.Equal(t, 0, n.ListenerCount())
}

func TestEmitter_ErrorIsolation(t *testing.T) {
	tests := []struct {
		name    string
		failing Listener
		wantMsg string
	}{
		{
			name: "returned error",
			failing: Func(func(e *event.StorageEvent) error {
				return errors.New("listener failed")
			}),
			wantMsg: "listener failed",
		},
		{
			name: "panic",
			failing: Func(func(e *event.StorageEvent) error {
				panic("listener exploded")
			}),
			wantMsg: "panic: listener exploded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := captureLogs(t)
			n, _ := newTestEmitter()
			after := NewRecorder(nil)

			n.On(tt.failing)
			n.On(after)

			require.NotPanics(t, func() { emitKey(n, "a") })

			assert.Len(t, after.Events(), 1, "sibling listener")
			assert.Contains(t, logs.String(), "Error in storage event listener")
			assert.Contains(t, logs.String(), tt.wantMsg)
		})
	}
}

func TestEmitter_SetErrorHandler(t *testing.T) {
	n, _ := newTestEmitter()
	boom := errors.New("boom")
	failing := Func(func(e *event.StorageEvent) error { return boom })

	var gotErr error
	var gotListener Listener
	n.SetErrorHandler(func(err error, l Listener) {
		gotErr = err
		gotListener = l
	})
	n.On(failing)

	emitKey(n, "a")

	assert.ErrorIs(t, gotErr, boom)
	assert.True(t, gotListener == failing, "handler received a different listener than the one registered")
}

func TestEmitter_PanickingErrorHandler(t *testing.T) {
	logs := captureLogs(t)
	n, _ := newTestEmitter()
	after := NewRecorder(nil)

	n.SetErrorHandler(func(err error, l Listener) {
		panic("handler exploded")
	})
	n.On(Func(func(e *event.StorageEvent) error { return errors.New("original") }))
	n.On(after)

	emitKey(n, "a")

	assert.Len(t, after.Events(), 1, "sibling listener")
	for _, want := range []string{"Error in error handler", "handler exploded", "Original error", "original"} {
		assert.Contains(t, logs.String(), want)
	}

	// nil restores the default handler
	n.SetErrorHandler(nil)
	logs.Reset()
	emitKey(n, "b")
	assert.Contains(t, logs.String(), "Error in storage event listener")
}

func TestEmitter_PanicErrorUnwrap(t *testing.T) {
	n, _ := newTestEmitter()
	sentinel := errors.New("sentinel")

	var gotErr error
	n.SetErrorHandler(func(err error, l Listener) { gotErr = err })
	n.On(Func(func(e *event.StorageEvent) error { panic(sentinel) }))

	emitKey(n, "a")

	var panicErr *PanicError
	require.ErrorAs(t, gotErr, &panicErr)
	assert.ErrorIs(t, gotErr, sentinel, "PanicError should unwrap to the panic value")
}

func TestEmitter_ResolveDispatchTarget(t *testing.T) {
	n, env := newTestEmitter()

	require.Same(t, n.own, n.resolveDispatchTarget(),
		"without dispatching scopes the emitter should use its own target")

	window := scope.NewWindow("http://localhost/")
	env.SetWindow(window)
	assert.Same(t, window.Target(), n.resolveDispatchTarget(), "window target once a window exists")

	process := event.NewTarget()
	env.Process().SetTarget(process)
	assert.Same(t, process, n.resolveDispatchTarget(), "shared process wins over the window")

	def := event.NewTarget()
	env.Default().SetTarget(def)
	assert.Same(t, def, n.resolveDispatchTarget(), "default global wins over everything")
}

func TestEmitter_WindowInstalledLater(t *testing.T) {
	n, env := newTestEmitter()
	early := NewRecorder(nil)
	n.On(early)

	window := scope.NewWindow("http://localhost/")
	env.SetWindow(window)

	late := NewRecorder(nil)
	n.On(late)

	var windowEvents int
	window.Target().AddEventListener(event.TypeStorage, event.Func(func(e event.Interface) {
		windowEvents++
	}), event.Options{})

	emitKey(n, "a")

	assert.Empty(t, early.Events(), "listener registered on the emitter's own target")
	assert.Len(t, late.Events(), 1, "listener registered on the window")
	assert.Equal(t, 1, windowEvents)

	// Off detaches from the target used at registration time
	n.Off(early)
	env.RemoveWindow()
	emitKey(n, "b")
	assert.Empty(t, early.Events())
}

func TestEmitter_EventConstructor(t *testing.T) {
	n, env := newTestEmitter()
	rec := NewRecorder(nil)
	n.On(rec)

	var built int
	env.Process().InstallEventType(func(typ string, init event.StorageEventInit) *event.StorageEvent {
		built++
		init.URL = "from-process"
		return event.NewStorageEvent(typ, init)
	})

	emitKey(n, "a")

	assert.Equal(t, 1, built)
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, "from-process", rec.Events()[0].URL())

	env.Process().InstallEventType(func(string, event.StorageEventInit) *event.StorageEvent { return nil })
	emitKey(n, "b")
	assert.Len(t, rec.Events(), 2, "nil constructor result falls back")
}

func TestEmitter_Metrics(t *testing.T) {
	captureLogs(t)
	n, _ := newTestEmitter()
	n.On(Func(func(e *event.StorageEvent) error { return errors.New("x") }))

	emitted := logger.GetCounter("storage.events.emitted")
	failed := logger.GetCounter("storage.listener.errors")

	emitKey(n, "a")

	assert.Equal(t, emitted+1, logger.GetCounter("storage.events.emitted"))
	assert.Equal(t, failed+1, logger.GetCounter("storage.listener.errors"))
}

func TestDefault(t *testing.T) {
	require.NotNil(t, Default())
	assert.Same(t, Default(), Default())
}
