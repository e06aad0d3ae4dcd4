package core

import (
	"context"
	"sync"
)

// DefaultHistorySize is how many runs RunHistory keeps and the most a
// history listing returns.
const DefaultHistorySize = 100

// RunHistory is an in-memory RunStore holding the most recent runs. It is
// used when no database is configured.
type RunHistory struct {
	mu   sync.Mutex
	runs []RunSummary // ring buffer
	next int
	full bool
}

// NewRunHistory keeps the last size runs.
func NewRunHistory(size int) *RunHistory {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &RunHistory{runs: make([]RunSummary, size)}
}

func (h *RunHistory) RecordRun(_ context.Context, run RunSummary) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.runs[h.next] = run
	h.next = (h.next + 1) % len(h.runs)
	if h.next == 0 {
		h.full = true
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (h *RunHistory) ListRuns(_ context.Context, limit int) ([]RunSummary, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := h.next
	if h.full {
		n = len(h.runs)
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]RunSummary, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (h.next - i + len(h.runs)) % len(h.runs)
		out = append(out, h.runs[idx])
	}
	return out, nil
}
