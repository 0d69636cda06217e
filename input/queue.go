// Package input provides the event queue the player polls between frames.
package input

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// EventType classifies an input event.
type EventType int

const (
	// EventKeyDown reports a key press.
	EventKeyDown EventType = iota
	// EventKeyUp reports a key release.
	EventKeyUp
	// EventQuit reports that the host asked the application to exit.
	EventQuit
)

// String returns the event type name used in logs.
func (t EventType) String() string {
	switch t {
	case EventKeyDown:
		return "key-down"
	case EventKeyUp:
		return "key-up"
	case EventQuit:
		return "quit"
	default:
		return fmt.Sprintf("event(%d)", int(t))
	}
}

// Key identifies a keyboard key.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyReturn
)

// Event is one input event.
type Event struct {
	Type EventType
	Key  Key
}

// DefaultCapacity is the queue size used when NewQueue is given zero.
const DefaultCapacity = 64

// Queue is a bounded, non-blocking event queue. Producers on any goroutine
// call Push; the player drains it with PollEvent.
type Queue struct {
	events chan Event
}

// NewQueue creates a queue holding up to capacity pending events.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{events: make(chan Event, capacity)}
}

// Push enqueues ev. It reports false and drops the event when the queue is full.
func (q *Queue) Push(ev Event) bool {
	select {
	case q.events <- ev:
		return true
	default:
		logrus.WithFields(logrus.Fields{
			"function": "Queue.Push",
			"type":     ev.Type.String(),
			"key":      int(ev.Key),
		}).Warn("Input queue full, dropping event")
		return false
	}
}

// PollEvent returns the next pending event, or false when none is queued.
func (q *Queue) PollEvent() (Event, bool) {
	select {
	case ev := <-q.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// KeyPress returns the key-down event for k.
func KeyPress(k Key) Event {
	return Event{Type: EventKeyDown, Key: k}
}
