// Package localstorage is an in-memory stand-in for the browser localStorage
// API together with its storage change events.
//
// Importing the package installs the default storage and the StorageEvent
// constructor into the process scopes that do not already provide them.
package localstorage

import (
	"github.com/pfrederiksen/fake-localstorage/internal/auto"
	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/notifier"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
	"github.com/pfrederiksen/fake-localstorage/internal/storage"
)

type (
	Storage          = storage.Storage
	StorageEvent     = event.StorageEvent
	StorageEventInit = event.StorageEventInit
	Listener         = notifier.Listener
	Options          = notifier.Options
	ErrorHandler     = notifier.ErrorHandler
)

func init() {
	auto.Install(scope.Global())
}

// Default returns the process-wide storage.
func Default() *Storage {
	return storage.Default()
}

// NewStorage creates an independent storage that notifies through the
// process-wide emitter.
func NewStorage() *Storage {
	return storage.New()
}

// Func adapts a plain function to a Listener. Every call returns a new
// identity, so keep the result to unregister it later.
func Func(fn func(e *StorageEvent) error) Listener {
	return notifier.Func(fn)
}

// OnStorageEvent registers l for storage events from every storage using the
// process-wide emitter. Registering the same listener twice does nothing.
func OnStorageEvent(l Listener, opts ...Options) {
	notifier.Default().On(l, opts...)
}

// OffStorageEvent unregisters l. Unknown listeners are ignored.
func OffStorageEvent(l Listener) {
	notifier.Default().Off(l)
}

// ClearStorageEvents removes every registered listener.
func ClearStorageEvents() {
	notifier.Default().Clear()
}

// SetErrorHandler replaces the handler for listener failures. A nil handler
// restores the default, which logs the error.
func SetErrorHandler(h ErrorHandler) {
	notifier.Default().SetErrorHandler(h)
}
