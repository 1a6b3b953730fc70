// Package notifier provides the process-wide broadcaster for storage change events.
//
// The Emitter builds a "storage" event for every mutation and dispatches it
// through whichever target the environment currently offers: a dispatching
// default global, a dispatching shared process global, a window, or the
// emitter's own EventTarget. Listeners are wrapped so that a returned error or
// a panic is reported through the error handler and never reaches sibling
// listeners or the mutation that caused the event.
package notifier
