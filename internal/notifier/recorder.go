package notifier

import (
	"fmt"
	"io"
	"sync"

	"github.com/pfrederiksen/fake-localstorage/internal/event"
)

// Recorder is a Listener that keeps every event it receives and, when given
// a writer, prints each one as it arrives.
type Recorder struct {
	mu     sync.Mutex
	events []*event.StorageEvent
	out    io.Writer
}

// NewRecorder creates a recorder. out may be nil.
func NewRecorder(out io.Writer) *Recorder {
	return &Recorder{out: out}
}

// HandleStorageEvent records e and prints it when the recorder has a writer
func (r *Recorder) HandleStorageEvent(e *event.StorageEvent) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	if r.out != nil {
		if _, err := fmt.Fprintln(r.out, e.String()); err != nil {
			return fmt.Errorf("printing storage event: %w", err)
		}
	}
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []*event.StorageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*event.StorageEvent(nil), r.events...)
}

// Drain returns the recorded events and forgets them
func (r *Recorder) Drain() []*event.StorageEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}
