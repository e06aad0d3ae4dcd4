package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	sink := SlogSink(logger)

	sink.Emit(Event{Kind: EventStageFinished, Stage: StageFallback, Message: "stage finished", Attrs: []any{"accepted", 2}})
	sink.Emit(Event{Kind: EventRowFailed, Stage: StageFallback, Line: 7, Message: "row failed"})

	out := buf.String()
	if !strings.Contains(out, "stage=fallback_extract") || !strings.Contains(out, "accepted=2") {
		t.Errorf("stage event not logged: %q", out)
	}
	if strings.Contains(out, "row failed") {
		t.Errorf("debug row event logged at info level: %q", out)
	}
}

func TestTee(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Tee(a, nil, b).Emit(Event{Kind: EventRowDropped})

	if a.Count(EventRowDropped) != 1 || b.Count(EventRowDropped) != 1 {
		t.Error("Tee did not reach every sink")
	}
	if len(a.Events()) != 1 {
		t.Errorf("Events() = %d, want 1", len(a.Events()))
	}
}
