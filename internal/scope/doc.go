// Package scope models the ambient global scopes a storage polyfill installs into.
//
// A host exposes up to three namespaces: the default global (globalThis), the
// shared process global (global) and a window-like global (window). Each
// Scope can hold an installed storage, a StorageEvent constructor, a dispatch
// target and, for windows, a page location. The Environment groups the scopes
// that exist; Global returns the one describing this process.
package scope
