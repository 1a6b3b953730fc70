package notifier

import (
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/logger"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
)

// Listener receives storage events. Implementations must be comparable;
// registration is keyed by the listener value.
type Listener interface {
	HandleStorageEvent(e *event.StorageEvent) error
}

type funcListener struct {
	fn func(*event.StorageEvent) error
}

func (l *funcListener) HandleStorageEvent(e *event.StorageEvent) error { return l.fn(e) }

// Func adapts fn to a Listener. Every call returns a new identity.
func Func(fn func(e *event.StorageEvent) error) Listener {
	return &funcListener{fn: fn}
}

// Options are the registration flags passed through to the dispatch target
type Options = event.Options

// ErrorHandler reports a failure of listener l
type ErrorHandler func(err error, l Listener)

// PanicError is the error reported when a listener or error handler panics
type PanicError struct {
	Value interface{}
}

// Error describes the recovered panic value
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

type registration struct {
	id       uuid.UUID
	listener Listener
	safe     *safeListener
	opts     Options
	target   event.Target
}

// Emitter dispatches storage events to registered listeners
type Emitter struct {
	env *scope.Environment
	own *event.EventTarget

	mu           sync.Mutex
	listeners    map[Listener]*registration
	errorHandler ErrorHandler
}

var defaultEmitter = New(scope.Global())

// Default returns the process-wide emitter bound to scope.Global()
func Default() *Emitter {
	return defaultEmitter
}

// New creates an emitter that resolves its dispatch target from env
func New(env *scope.Environment) *Emitter {
	return &Emitter{
		env:       env,
		own:       event.NewTarget(),
		listeners: make(map[Listener]*registration),
	}
}

// resolveDispatchTarget picks the target for the current call. It is not
// cached: a harness may install a window after the emitter exists.
func (n *Emitter) resolveDispatchTarget() event.Target {
	for _, s := range []*scope.Scope{n.env.Default(), n.env.Process(), n.env.Window()} {
		if t := s.Target(); t != nil {
			return t
		}
	}
	return n.own
}

func (n *Emitter) eventConstructor() event.Constructor {
	for _, s := range []*scope.Scope{n.env.Default(), n.env.Process(), n.env.Window()} {
		if ctor := s.EventType(); ctor != nil {
			return ctor
		}
	}
	return event.NewStorageEvent
}

// Emit builds a "storage" event from init and dispatches it synchronously
func (n *Emitter) Emit(init event.StorageEventInit) {
	start := time.Now()

	evt := n.eventConstructor()(event.TypeStorage, init)
	if evt == nil || evt.Event == nil {
		evt = event.NewStorageEvent(event.TypeStorage, init)
	}
	n.resolveDispatchTarget().DispatchEvent(evt)

	logger.IncrCounter("storage.events.emitted")
	logger.RecordTiming("storage.events.dispatch", time.Since(start))
}

// On registers l. Registering a listener that is already registered does nothing.
// Only the first Options value is used. A listener whose value cannot be
// compared (a struct holding a slice, map or func) cannot be identified later,
// so it is logged and not registered.
func (n *Emitter) On(l Listener, opts ...Options) {
	if l == nil {
		return
	}
	if !identifiable(l) {
		logger.Error("Storage event listener is not comparable", logger.Fields{
			"listener": fmt.Sprintf("%T", l),
		}, nil)
		return
	}

	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.listeners[l]; exists {
		return
	}

	reg := &registration{
		id:       uuid.New(),
		listener: l,
		opts:     o,
		target:   n.resolveDispatchTarget(),
	}
	reg.safe = &safeListener{emitter: n, reg: reg}
	n.listeners[l] = reg

	reg.target.AddEventListener(event.TypeStorage, reg.safe, o)
}

// Off removes l from the target it was registered on. Unknown listeners are ignored.
func (n *Emitter) Off(l Listener) {
	if l == nil || !identifiable(l) {
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	reg, exists := n.listeners[l]
	if !exists {
		return
	}
	delete(n.listeners, l)
	reg.target.RemoveEventListener(event.TypeStorage, reg.safe, reg.opts)
}

// Clear removes every listener
func (n *Emitter) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for l, reg := range n.listeners {
		reg.target.RemoveEventListener(event.TypeStorage, reg.safe, reg.opts)
		delete(n.listeners, l)
	}
}

// identifiable reports whether l can be used as a registry key without
// panicking, checking the dynamic values of interface fields too.
func identifiable(l Listener) bool {
	return reflect.ValueOf(l).Comparable()
}

// ListenerCount returns the number of registered listeners
func (n *Emitter) ListenerCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// SetErrorHandler replaces how listener failures are reported. A nil handler
// restores the default, which logs the error and the listener.
func (n *Emitter) SetErrorHandler(handler ErrorHandler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errorHandler = handler
}

// forget drops a once-only registration after it fired
func (n *Emitter) forget(reg *registration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners[reg.listener] == reg {
		delete(n.listeners, reg.listener)
	}
}

func (n *Emitter) handleListenerError(err error, reg *registration) {
	logger.IncrCounter("storage.listener.errors")

	n.mu.Lock()
	handler := n.errorHandler
	n.mu.Unlock()

	fields := logger.Fields{
		"listener_id": reg.id.String(),
		"listener":    fmt.Sprintf("%T", reg.listener),
	}

	if handler == nil {
		logger.Error("Error in storage event listener", fields, err)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Error in error handler", fields, &PanicError{Value: r})
			logger.Error("Original error", fields, err)
		}
	}()
	handler(err, reg.listener)
}

// safeListener is what actually gets attached to the dispatch target
type safeListener struct {
	emitter *Emitter
	reg     *registration
}

func (s *safeListener) HandleEvent(e event.Interface) {
	evt, ok := e.(*event.StorageEvent)
	if !ok {
		return
	}

	if s.reg.opts.Once {
		s.emitter.forget(s.reg)
	}

	if err := s.invoke(evt); err != nil {
		s.emitter.handleListenerError(err, s.reg)
	}
}

func (s *safeListener) invoke(evt *event.StorageEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return s.reg.listener.HandleStorageEvent(evt)
}
