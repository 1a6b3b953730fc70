package storage

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/pfrederiksen/fake-localstorage/internal/config"
	"github.com/pfrederiksen/fake-localstorage/internal/event"
	"github.com/pfrederiksen/fake-localstorage/internal/logger"
	"github.com/pfrederiksen/fake-localstorage/internal/notifier"
	"github.com/pfrederiksen/fake-localstorage/internal/scope"
)

// Config selects the collaborators of a Storage. Zero values use the process defaults.
type Config struct {
	Emitter     *notifier.Emitter
	Environment *scope.Environment
	// URL is reported in events when the environment has no window location
	URL string
}

// Entry is one stored pair
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Storage is an insertion-ordered string map that reports its changes.
//
// Every mutation queues its event under the same lock that applies it, so
// listeners see events in mutation order. Listeners may read and mutate the
// storage they are notified about: a mutation made from a listener is applied
// at once and its event is delivered after the current one. Listeners of one
// Storage are never invoked concurrently; when another goroutine is already
// delivering, a mutation's event is delivered by that goroutine.
type Storage struct {
	emitter *notifier.Emitter
	env     *scope.Environment

	mu     sync.RWMutex
	data   map[string]string
	order  []string
	length int
	url    string

	// pending events, delivered in order by whichever call finds delivering unset
	pending    []event.StorageEventInit
	delivering bool
}

var _ event.StorageArea = (*Storage)(nil)

var defaultStorage = NewWithConfig(Config{URL: config.FromEnv().URL})

// Default returns the process-wide storage instance
func Default() *Storage {
	return defaultStorage
}

// New creates an empty storage using the default emitter and environment
func New() *Storage {
	return NewWithConfig(Config{})
}

// NewWithConfig creates an empty storage
func NewWithConfig(cfg Config) *Storage {
	if cfg.Emitter == nil {
		cfg.Emitter = notifier.Default()
	}
	if cfg.Environment == nil {
		cfg.Environment = scope.Global()
	}
	return &Storage{
		emitter: cfg.Emitter,
		env:     cfg.Environment,
		data:    make(map[string]string),
		url:     cfg.URL,
	}
}

// SetURL changes the URL reported when no window location is available
func (s *Storage) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

// Length returns the number of stored keys
func (s *Storage) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// Size returns the number of stored keys, counted from the map itself
func (s *Storage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// GetItem returns the value stored under key
func (s *Storage) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok
}

// SetItem stores value under key and emits an event carrying the previous value
func (s *Storage) SetItem(key, value string) {
	s.mu.Lock()
	old, existed := s.data[key]
	s.data[key] = value
	if !existed {
		s.order = append(s.order, key)
		s.length++
	}

	init := event.StorageEventInit{
		Key:      event.String(key),
		NewValue: event.String(value),
	}
	if existed {
		init.OldValue = event.String(old)
	}
	s.enqueueLocked(init)
	s.mu.Unlock()

	s.deliver()
}

// RemoveItem deletes key. An event is emitted even when the key was absent,
// in which case its old value is absent too.
func (s *Storage) RemoveItem(key string) {
	s.mu.Lock()
	old, existed := s.data[key]
	if existed {
		delete(s.data, key)
		s.order = removeKey(s.order, key)
		s.length--
	}

	init := event.StorageEventInit{Key: event.String(key)}
	if existed {
		init.OldValue = event.String(old)
	}
	s.enqueueLocked(init)
	s.mu.Unlock()

	s.deliver()
}

// Clear removes every key, then emits one event per removed key in insertion order
func (s *Storage) Clear() {
	s.mu.Lock()
	removed := s.entriesLocked()
	s.resetLocked()
	for _, e := range removed {
		s.enqueueLocked(event.StorageEventInit{
			Key:      event.String(e.Key),
			OldValue: event.String(e.Value),
		})
	}
	s.mu.Unlock()

	s.deliver()
}

// Key returns the key at index in insertion order
func (s *Storage) Key(index int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.order) {
		return "", false
	}
	return s.order[index], true
}

// Has reports whether key is stored
func (s *Storage) Has(key string) bool {
	_, ok := s.GetItem(key)
	return ok
}

// Keys returns the keys in insertion order
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Values returns the values in key insertion order
func (s *Storage) Values() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]string, 0, len(s.order))
	for _, key := range s.order {
		values = append(values, s.data[key])
	}
	return values
}

// Entries returns the pairs in insertion order
func (s *Storage) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesLocked()
}

// ForEach calls fn for every pair in insertion order. It iterates over a
// copy, so fn may modify the storage.
func (s *Storage) ForEach(fn func(value, key string, s *Storage)) {
	for _, e := range s.Entries() {
		fn(e.Value, e.Key, s)
	}
}

// Reset removes every key without emitting events
func (s *Storage) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Load replaces the contents with entries without emitting events. A key
// repeated in entries keeps its first position and its last value.
func (s *Storage) Load(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	for _, e := range entries {
		if _, exists := s.data[e.Key]; !exists {
			s.order = append(s.order, e.Key)
			s.length++
		}
		s.data[e.Key] = e.Value
	}
}

// Serialize returns a copy of the contents as a plain map
func (s *Storage) Serialize() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the contents as a JSON object in insertion order
func (s *Storage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range s.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Storage) entriesLocked() []Entry {
	entries := make([]Entry, 0, len(s.order))
	for _, key := range s.order {
		entries = append(entries, Entry{Key: key, Value: s.data[key]})
	}
	return entries
}

func (s *Storage) resetLocked() {
	s.data = make(map[string]string)
	s.order = nil
	s.length = 0
}

// enqueueLocked queues the event for a mutation that was just applied
func (s *Storage) enqueueLocked(init event.StorageEventInit) {
	init.StorageArea = s
	if href, ok := s.env.Location(); ok {
		init.URL = href
	} else {
		init.URL = s.url
	}
	s.pending = append(s.pending, init)
}

// deliver dispatches queued events until none are left. It returns at once
// when a delivery is already in progress, either further up this goroutine's
// stack (a listener mutating the storage) or on another goroutine; that
// delivery picks up the new events.
func (s *Storage) deliver() {
	s.mu.Lock()
	if s.delivering {
		s.mu.Unlock()
		return
	}
	s.delivering = true
	for len(s.pending) > 0 {
		init := s.pending[0]
		s.pending[0] = event.StorageEventInit{}
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.dispatch(init)

		s.mu.Lock()
	}
	s.pending = nil
	s.delivering = false
	s.mu.Unlock()
}

// dispatch hands the change to the emitter. A failing dispatch target is
// logged and otherwise ignored; the mutation has already happened.
func (s *Storage) dispatch(init event.StorageEventInit) {
	defer func() {
		if r := recover(); r != nil {
			key, _ := deref(init.Key)
			logger.Warn("Failed to dispatch storage event", logger.Fields{"key": key},
				&notifier.PanicError{Value: r})
		}
	}()
	s.emitter.Emit(init)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func removeKey(order []string, key string) []string {
	for i, k := range order {
		if k == key {
			return append(order[:i:i], order[i+1:]...)
		}
	}
	return order
}
