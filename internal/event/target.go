package event

import "sync"

// Options controls how a listener is registered on a Target
type Options struct {
	Capture bool
	Once    bool
	Passive bool
}

// Listener receives dispatched events. Implementations must be comparable:
// a listener is identified by its value together with Options.Capture.
type Listener interface {
	HandleEvent(e Interface)
}

type funcListener struct {
	fn func(Interface)
}

func (l *funcListener) HandleEvent(e Interface) { l.fn(e) }

// Func wraps fn in a new Listener. Each call returns a distinct identity, so
// keep the result around to remove the listener later.
func Func(fn func(Interface)) Listener {
	return &funcListener{fn: fn}
}

// Target is anything events can be dispatched through
type Target interface {
	AddEventListener(typ string, l Listener, opts Options)
	RemoveEventListener(typ string, l Listener, opts Options)
	DispatchEvent(e Interface) bool
}

type registration struct {
	listener Listener
	opts     Options
	removed  bool
}

// EventTarget is a standalone Target holding listener lists per event type
type EventTarget struct {
	mu        sync.Mutex
	listeners map[string][]*registration
}

// NewTarget creates an empty EventTarget
func NewTarget() *EventTarget {
	return &EventTarget{
		listeners: make(map[string][]*registration),
	}
}

// AddEventListener registers l for events of type typ. Registering the same
// listener with the same capture flag twice is a no-op.
func (t *EventTarget) AddEventListener(typ string, l Listener, opts Options) {
	if l == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.listeners[typ] {
		if r.listener == l && r.opts.Capture == opts.Capture {
			return
		}
	}
	t.listeners[typ] = append(t.listeners[typ], &registration{listener: l, opts: opts})
}

// RemoveEventListener removes the registration matching l and opts.Capture
func (t *EventTarget) RemoveEventListener(typ string, l Listener, opts Options) {
	if l == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range t.listeners[typ] {
		if r.listener == l && r.opts.Capture == opts.Capture {
			t.removeLocked(typ, r)
			return
		}
	}
}

// removeLocked drops r from the list. The slice is rebuilt rather than
// edited in place so that snapshots taken by DispatchEvent stay valid.
func (t *EventTarget) removeLocked(typ string, r *registration) {
	r.removed = true

	current := t.listeners[typ]
	next := make([]*registration, 0, len(current))
	for _, other := range current {
		if other != r {
			next = append(next, other)
		}
	}
	if len(next) == 0 {
		delete(t.listeners, typ)
		return
	}
	t.listeners[typ] = next
}

// ListenerCount returns the number of listeners registered for typ
func (t *EventTarget) ListenerCount(typ string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners[typ])
}

// DispatchEvent invokes the listeners registered for e's type synchronously,
// capture listeners first, each group in registration order. Listeners added
// during the dispatch are not invoked for it. It returns false if the event
// is cancelable and a listener called PreventDefault.
func (t *EventTarget) DispatchEvent(e Interface) bool {
	ev := e.Base()
	ev.beginDispatch(t)
	defer ev.endDispatch()

	t.mu.Lock()
	snapshot := append([]*registration(nil), t.listeners[e.Type()]...)
	t.mu.Unlock()

	for _, capture := range []bool{true, false} {
		for _, r := range snapshot {
			if r.opts.Capture != capture {
				continue
			}
			if ev.stopImmediate {
				return !(ev.cancelable && ev.defaultPrevented)
			}

			t.mu.Lock()
			if r.removed {
				t.mu.Unlock()
				continue
			}
			if r.opts.Once {
				t.removeLocked(e.Type(), r)
			}
			t.mu.Unlock()

			ev.inPassiveListener = r.opts.Passive
			r.listener.HandleEvent(e)
			ev.inPassiveListener = false
		}
	}

	return !(ev.cancelable && ev.defaultPrevented)
}
