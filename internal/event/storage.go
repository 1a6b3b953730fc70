package event

import (
	"encoding/json"
	"fmt"
)

// TypeStorage is the event type emitted for every storage mutation
const TypeStorage = "storage"

// StorageArea is the platform Storage interface a StorageEvent refers to
type StorageArea interface {
	Length() int
	Key(index int) (string, bool)
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	RemoveItem(key string)
	Clear()
}

// StorageEventInit carries the fields used to build a StorageEvent.
// A nil string pointer means the value is absent, which is not the same as "".
type StorageEventInit struct {
	Init
	Key         *string
	NewValue    *string
	OldValue    *string
	StorageArea StorageArea
	URL         string
}

// Constructor builds a StorageEvent. Scopes may carry their own constructor;
// NewStorageEvent is the default one.
type Constructor func(typ string, init StorageEventInit) *StorageEvent

// StorageEvent describes one change to a StorageArea. The storage fields are
// fixed at construction.
type StorageEvent struct {
	*Event
	key         *string
	newValue    *string
	oldValue    *string
	storageArea StorageArea
	url         string
}

// NewStorageEvent creates a StorageEvent. Unset fields default to absent, nil and "".
func NewStorageEvent(typ string, init StorageEventInit) *StorageEvent {
	return &StorageEvent{
		Event:       New(typ, init.Init),
		key:         clone(init.Key),
		newValue:    clone(init.NewValue),
		oldValue:    clone(init.OldValue),
		storageArea: init.StorageArea,
		url:         init.URL,
	}
}

// String returns a pointer to a copy of s, for filling StorageEventInit
func String(s string) *string {
	return &s
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	return String(*s)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

// Key returns the changed key; ok is false when no key applies
func (e *StorageEvent) Key() (key string, ok bool) { return deref(e.key) }

// NewValue returns the value after the change; ok is false when the key was removed
func (e *StorageEvent) NewValue() (value string, ok bool) { return deref(e.newValue) }

// OldValue returns the value before the change; ok is false when the key did not exist
func (e *StorageEvent) OldValue() (value string, ok bool) { return deref(e.oldValue) }

// StorageArea returns the storage that changed, or nil
func (e *StorageEvent) StorageArea() StorageArea { return e.storageArea }

// URL returns the address of the document whose storage changed
func (e *StorageEvent) URL() string { return e.url }

// String formats the storage fields, printing absent values as null
func (e *StorageEvent) String() string {
	return fmt.Sprintf("%s{key: %s, oldValue: %s, newValue: %s, url: %q}",
		e.Type(), quoteOrNull(e.key), quoteOrNull(e.oldValue), quoteOrNull(e.newValue), e.url)
}

func quoteOrNull(s *string) string {
	if s == nil {
		return "null"
	}
	return fmt.Sprintf("%q", *s)
}

// MarshalJSON encodes the storage fields, using null for absent values
func (e *StorageEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string  `json:"type"`
		Key      *string `json:"key"`
		OldValue *string `json:"oldValue"`
		NewValue *string `json:"newValue"`
		URL      string  `json:"url"`
	}{
		Type:     e.Type(),
		Key:      e.key,
		OldValue: e.oldValue,
		NewValue: e.newValue,
		URL:      e.url,
	})
}
