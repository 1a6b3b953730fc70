package event

import (
	"errors"
	"time"
)

// ErrInvalidState is the panic value raised when an event that is already
// being dispatched is dispatched again.
var ErrInvalidState = errors.New("event is already being dispatched")

// Phase is the dispatch phase an event is currently in
type Phase uint8

const (
	None Phase = iota
	CapturingPhase
	AtTarget
	BubblingPhase
)

// Init holds the flags shared by every event type
type Init struct {
	Bubbles    bool
	Cancelable bool
	Composed   bool
}

// Interface is implemented by every value that can be dispatched to a Target.
// Concrete event types embed *Event to satisfy it.
type Interface interface {
	Type() string
	Base() *Event
}

// Event is the generic event primitive
type Event struct {
	typ        string
	bubbles    bool
	cancelable bool
	composed   bool
	timeStamp  time.Time

	phase         Phase
	target        Target
	currentTarget Target
	dispatching   bool

	defaultPrevented  bool
	stopPropagation   bool
	stopImmediate     bool
	inPassiveListener bool
}

// New creates an event of the given type
func New(typ string, init Init) *Event {
	return &Event{
		typ:        typ,
		bubbles:    init.Bubbles,
		cancelable: init.Cancelable,
		composed:   init.Composed,
		timeStamp:  time.Now(),
	}
}

// Type returns the event type, e.g. "storage"
func (e *Event) Type() string { return e.typ }

// Base returns the event itself so that embedding types satisfy Interface
func (e *Event) Base() *Event { return e }

// Bubbles reports the Bubbles flag the event was created with
func (e *Event) Bubbles() bool { return e.bubbles }

// Cancelable reports whether PreventDefault can take effect
func (e *Event) Cancelable() bool { return e.cancelable }

// Composed reports the Composed flag the event was created with
func (e *Event) Composed() bool { return e.composed }

// TimeStamp returns the creation time
func (e *Event) TimeStamp() time.Time { return e.timeStamp }

// EventPhase returns the current dispatch phase; None outside of dispatch
func (e *Event) EventPhase() Phase { return e.phase }

// IsTrusted always reports false: every event built here is synthetic.
func (e *Event) IsTrusted() bool { return false }

// Target returns the target the event was last dispatched to
func (e *Event) Target() Target { return e.target }

// CurrentTarget returns the target whose listeners are being invoked, or nil
// outside of dispatch.
func (e *Event) CurrentTarget() Target { return e.currentTarget }

// DefaultPrevented reports whether PreventDefault took effect
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// PreventDefault cancels the event if it is cancelable. Calls made from a
// passive listener are ignored.
func (e *Event) PreventDefault() {
	if e.cancelable && !e.inPassiveListener {
		e.defaultPrevented = true
	}
}

// StopPropagation prevents the event from reaching further targets. Other
// listeners on the current target still run.
func (e *Event) StopPropagation() { e.stopPropagation = true }

// StopImmediatePropagation also skips the remaining listeners on the current target.
func (e *Event) StopImmediatePropagation() {
	e.stopPropagation = true
	e.stopImmediate = true
}

// CancelBubble reports whether propagation has been stopped
func (e *Event) CancelBubble() bool { return e.stopPropagation }

// ComposedPath returns the targets the event travels through. Storage events
// have no tree, so this is the current target during dispatch and empty otherwise.
func (e *Event) ComposedPath() []Target {
	if e.currentTarget == nil {
		return []Target{}
	}
	return []Target{e.currentTarget}
}

func (e *Event) beginDispatch(t Target) {
	if e.dispatching {
		panic(ErrInvalidState)
	}
	e.dispatching = true
	e.target = t
	e.currentTarget = t
	e.phase = AtTarget
}

func (e *Event) endDispatch() {
	e.dispatching = false
	e.currentTarget = nil
	e.phase = None
	e.stopPropagation = false
	e.stopImmediate = false
	e.inPassiveListener = false
}
