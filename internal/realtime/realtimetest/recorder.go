// Package realtimetest provides a Notifier that records events for assertions.
package realtimetest

import (
	"context"
	"sync"

	"github.com/emilythestrangee/comment-system/backend/internal/realtime"
)

type Recorder struct {
	mu     sync.Mutex
	events []realtime.Event
	// Err, when set, is returned from every Broadcast after recording.
	Err error
}

func (r *Recorder) Broadcast(_ context.Context, ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

// Names lists recorded event names in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.Name
	}
	return names
}

func (r *Recorder) Last() (realtime.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return realtime.Event{}, false
	}
	return r.events[len(r.events)-1], true
}
