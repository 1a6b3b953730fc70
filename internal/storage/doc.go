// Package storage provides an in-memory implementation of the browser Storage interface.
//
// A Storage keeps string pairs in insertion order and emits a "storage" event
// through the notifier for every SetItem, RemoveItem and Clear. Default
// returns the process-wide instance; New creates independent ones. Invoke
// exposes the same operations with the platform's strict argument checks for
// callers that work with untyped values.
package storage
