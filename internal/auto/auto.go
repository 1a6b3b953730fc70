// Package auto installs the fake storage into the ambient scopes that lack one.
package auto

import (
	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/logger"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
	"github.com/pfrederiksen/fake-localstorage/internal/storage"
)

// Result lists the scopes something was installed into
type Result struct {
	Storage   []scope.Name
	EventType []scope.Name
}

// Install puts the default storage and the StorageEvent constructor into every
// scope of env that does not already have them. Existing implementations
// are never replaced.
func Install(env *scope.Environment) Result {
	var res Result
	for _, s := range env.Scopes() {
		if installStorage(s, storage.Default()) {
			res.Storage = append(res.Storage, s.Name())
		}
		if installEventType(s, event.NewStorageEvent) {
			res.EventType = append(res.EventType, s.Name())
		}
	}

	logger.Debug("Installed fake storage", logger.Fields{
		"storage":    res.Storage,
		"event_type": res.EventType,
	})
	return res
}

func installStorage(r scope.Registry, s event.StorageArea) bool {
	if r.HasStorage() {
		return false
	}
	r.InstallStorage(s)
	return true
}

func installEventType(r scope.Registry, ctor event.Constructor) bool {
	if r.HasEventType() {
		return false
	}
	r.InstallEventType(ctor)
	return true
}
