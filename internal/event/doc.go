// Package event provides the change-notification event types used by the fake storage.
//
// The event package models the small slice of the DOM event machinery that a
// storage polyfill needs: a generic Event primitive (type, phase, propagation
// and cancellation flags), the StorageEvent that extends it with the four
// storage-specific fields, and an EventTarget that fans an event out to its
// registered listeners.
package event
