package scope

import "sync"

// Environment holds the ambient scopes a host provides. Any of them may be absent.
type Environment struct {
	mu     sync.RWMutex
	scopes map[Name]*Scope
}

var global = NewEnvironment(New(DefaultGlobal), New(SharedProcess))

// Global returns the process environment. It starts with a default global
// and a shared process global, neither able to dispatch, and no window.
func Global() *Environment {
	return global
}

// NewEnvironment creates an environment from the given scopes, keyed by name.
// A later scope replaces an earlier one with the same name.
func NewEnvironment(scopes ...*Scope) *Environment {
	env := &Environment{scopes: make(map[Name]*Scope)}
	for _, s := range scopes {
		if s != nil {
			env.scopes[s.Name()] = s
		}
	}
	return env
}

// Lookup returns the scope with the given name, or nil if the host lacks it
func (e *Environment) Lookup(name Name) *Scope {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scopes[name]
}

// Default returns the default global scope (globalThis), or nil
func (e *Environment) Default() *Scope { return e.Lookup(DefaultGlobal) }

// Process returns the shared process scope (global), or nil
func (e *Environment) Process() *Scope { return e.Lookup(SharedProcess) }

// Window returns the window scope, or nil when no window exists
func (e *Environment) Window() *Scope { return e.Lookup(Window) }

// Set adds or replaces a scope
func (e *Environment) Set(s *Scope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scopes[s.Name()] = s
}

// Remove drops the named scope, as if the host never provided it
func (e *Environment) Remove(name Name) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scopes, name)
}

// SetWindow installs w as the window scope. Test harnesses use it to fake a
// browser page after the rest of the system is already running.
func (e *Environment) SetWindow(w *Scope) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scopes[Window] = w
}

// RemoveWindow drops the window scope
func (e *Environment) RemoveWindow() {
	e.Remove(Window)
}

// Scopes returns the existing scopes in lookup order: default global,
// shared process, window.
func (e *Environment) Scopes() []*Scope {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*Scope
	for _, name := range []Name{DefaultGlobal, SharedProcess, Window} {
		if s, ok := e.scopes[name]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Location returns the window's page location, if a window with one exists
func (e *Environment) Location() (string, bool) {
	return e.Window().Location()
}
