package core

import (
	"context"
	"log/slog"
	"sync"
)

// EventKind classifies a pipeline diagnostic.
type EventKind string

const (
	EventStageStarted  EventKind = "stage_started"
	EventStageFinished EventKind = "stage_finished"
	EventFieldMatched  EventKind = "field_matched"
	EventHeaderFound   EventKind = "header_found"
	EventRowDropped    EventKind = "row_dropped"
	EventRowFailed     EventKind = "row_failed"
)

// Event is one diagnostic emitted during a pipeline run.
type Event struct {
	Kind    EventKind
	Stage   Stage
	Line    int
	Message string
	Attrs   []any // slog-style key/value pairs
}

// Sink receives pipeline diagnostics. Emit may be called from several
// goroutines when rows are classified in parallel.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type discardSink struct{}

func (discardSink) Emit(Event) {}

// Recorder is a Sink that keeps every event in memory.
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
	return append([]Event(nil), r.events...)
}

// Count returns how many recorded events are of kind.
func (r *Recorder) Count(kind EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// SlogSink writes events to logger. Row-level events log at debug, stage
// events at info.
func SlogSink(logger *slog.Logger) Sink {
	return SinkFunc(func(e Event) {
		level := slog.LevelDebug
		if e.Kind == EventStageStarted || e.Kind == EventStageFinished || e.Kind == EventHeaderFound {
			level = slog.LevelInfo
		}
		attrs := append([]any{"event", string(e.Kind), "stage", string(e.Stage)}, e.Attrs...)
		if e.Line > 0 {
			attrs = append(attrs, "line", e.Line)
		}
		logger.Log(context.Background(), level, e.Message, attrs...)
	})
}

// Tee fans each event out to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}
