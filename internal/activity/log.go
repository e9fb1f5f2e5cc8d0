package activity

import (
	"sync"
	"time"
)

type EventType string

const (
	EventToolCall    EventType = "tool_call"
	EventToolError   EventType = "tool_error"
	EventModelLoad   EventType = "model_load"
	EventModelRemove EventType = "model_remove"
	EventPreload     EventType = "preload"
)

type Event struct {
	At     time.Time `json:"at"`
	Type   EventType `json:"type"`
	CallID string    `json:"call_id,omitempty"`
	Tool   string    `json:"tool,omitempty"`
	Model  string    `json:"model,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Log is a fixed-size ring of recent events, for the activity feed and the
// dashboard. Old entries fall off; nothing here persists.
type Log struct {
	mu   sync.RWMutex
	buf  []Event
	next int
	full bool
}

func New(size int) *Log {
	if size <= 0 {
		size = 200
	}
	return &Log{
		buf: make([]Event, size),
	}
}

func (l *Log) Add(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf[l.next] = e
	l.next++
	if l.next >= len(l.buf) {
		l.next = 0
		l.full = true
	}
}

// List returns events newest first.
func (l *Log) List() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.full && l.next == 0 {
		return nil
	}

	var out []Event
	if l.full {
		out = make([]Event, 0, len(l.buf))
		out = append(out, l.buf[l.next:]...)
		out = append(out, l.buf[:l.next]...)
	} else {
		out = append([]Event(nil), l.buf[:l.next]...)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
