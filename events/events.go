// SPDX-License-Identifier: EPL-2.0

// Package events carries structured progress and log messages out of the
// segmentation engine. The engine never prints; it hands Events to a Sink
// supplied by the caller.
package events

import (
	"maps"
	"sync"
	"time"
)

// Level is the severity of an Event.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one structured message.
type Event struct {
	Level   Level
	Time    time.Time
	Message string
	Context map[string]any
}

// Sink receives events. Implementations must be safe for use by one
// goroutine at a time; Recorder and Multi are safe for concurrent use.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// New builds an event stamped with the current time.
func New(level Level, msg string, ctx map[string]any) Event {
	return Event{Level: level, Time: time.Now(), Message: msg, Context: ctx}
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans every event out to all non-nil sinks.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type fieldSink struct {
	next   Sink
	fields map[string]any
}

func (f fieldSink) Emit(e Event) {
	ctx := make(map[string]any, len(f.fields)+len(e.Context))
	maps.Copy(ctx, f.fields)
	maps.Copy(ctx, e.Context)
	e.Context = ctx
	f.next.Emit(e)
}

// WithFields returns a sink that adds fields to the context of every event
// before passing it on. Fields already present on the event win.
func WithFields(next Sink, fields map[string]any) Sink {
	return fieldSink{next: next, fields: maps.Clone(fields)}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events have the given level.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
