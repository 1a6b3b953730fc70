// Package cli implements the command-line interface for fakestorage.
//
// The cli package provides the Cobra-based CLI that runs a script of Storage
// calls against a fresh in-memory storage, records the storage events each
// call produces, and reports them as text or JSON. Calls go through the strict
// storage.Invoke surface, so argument errors read exactly like the platform's.
package cli
