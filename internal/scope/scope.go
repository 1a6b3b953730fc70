package scope

import (
	"sync"

	"github.com/pfrederiksen/fake-localstorage/internal/event"
)

// Name identifies an ambient global scope
type Name string

const (
	DefaultGlobal Name = "globalThis"
	SharedProcess Name = "global"
	Window        Name = "window"
)

// Registry is the capability the auto-installer depends on. Implementations
// report and accept a storage implementation and an event constructor.
type Registry interface {
	HasStorage() bool
	InstallStorage(storage event.StorageArea)
	HasEventType() bool
	InstallEventType(ctor event.Constructor)
}

var _ Registry = (*Scope)(nil)

// Scope is one ambient global namespace. A nil *Scope stands for a scope the
// host does not provide; its getters return zero values.
type Scope struct {
	name Name

	mu          sync.RWMutex
	storage     event.StorageArea
	eventType   event.Constructor
	target      event.Target
	location    string
	hasLocation bool
}

// New creates an empty scope without dispatch capability
func New(name Name) *Scope {
	return &Scope{name: name}
}

// NewWindow creates a window scope with its own EventTarget and the given location
func NewWindow(href string) *Scope {
	return &Scope{
		name:        Window,
		target:      event.NewTarget(),
		location:    href,
		hasLocation: true,
	}
}

// Name returns the scope name, or "" for a nil scope
func (s *Scope) Name() Name {
	if s == nil {
		return ""
	}
	return s.name
}

// HasStorage reports whether a storage is installed
func (s *Scope) HasStorage() bool {
	return s.Storage() != nil
}

// Storage returns the installed storage, or nil
func (s *Scope) Storage() event.StorageArea {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage
}

// InstallStorage sets the scope's storage, replacing any previous one
func (s *Scope) InstallStorage(storage event.StorageArea) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage = storage
}

// HasEventType reports whether a StorageEvent constructor is installed
func (s *Scope) HasEventType() bool {
	return s.EventType() != nil
}

// EventType returns the installed StorageEvent constructor, or nil
func (s *Scope) EventType() event.Constructor {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventType
}

// InstallEventType sets the scope's StorageEvent constructor, replacing any previous one
func (s *Scope) InstallEventType(ctor event.Constructor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventType = ctor
}

// Target returns the scope's dispatch capability, or nil if it has none
func (s *Scope) Target() event.Target {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.target
}

// SetTarget installs (or, with nil, removes) the scope's dispatch capability
func (s *Scope) SetTarget(target event.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = target
}

// Location returns the page location, if the scope has one
func (s *Scope) Location() (string, bool) {
	if s == nil {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location, s.hasLocation
}

// SetLocation gives the scope a page location
func (s *Scope) SetLocation(href string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = href
	s.hasLocation = true
}
