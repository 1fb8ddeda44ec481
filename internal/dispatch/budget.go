package dispatch

import (
	"fmt"
	"sync"
	"time"
)

// ActionBudget is a sliding window limiter on executor actions per key
// (typically the session ID). A runaway model cannot flood the host with
// input events.
type ActionBudget struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
}

// NewActionBudget creates a budget of max actions per window.
// Returns nil (no limiting) when max <= 0.
func NewActionBudget(max int, window time.Duration) *ActionBudget {
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	return &ActionBudget{
		windows: make(map[string][]time.Time),
		max:     max,
		window:  window,
	}
}

// Allow records an action for key, or returns an error when the budget
// for the current window is spent.
func (b *ActionBudget) Allow(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-b.window)

	entries := b.windows[key]
	start := 0
	for start < len(entries) && entries[start].Before(cutoff) {
		start++
	}
	entries = entries[start:]

	if len(entries) >= b.max {
		return fmt.Errorf("action budget exceeded: %d actions per %s for %s", b.max, b.window, key)
	}

	b.windows[key] = append(entries, now)
	return nil
}

// Cleanup drops stale keys. Call periodically to bound memory.
func (b *ActionBudget) Cleanup() {
	b.mu.Lock()
	defer b.mu.Unlock()

	cutoff := time.Now().Add(-b.window)
	for key, entries := range b.windows {
		start := 0
		for start < len(entries) && entries[start].Before(cutoff) {
			start++
		}
		if start == len(entries) {
			delete(b.windows, key)
		} else {
			b.windows[key] = entries[start:]
		}
	}
}
