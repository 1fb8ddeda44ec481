package agent

import (
	"context"
	"sync"
	"time"
)

// ActiveRun tracks a running session so it can be aborted remotely.
type ActiveRun struct {
	SessionID string
	Cancel    context.CancelFunc
	StartedAt time.Time
}

// Tracker is a registry of in-flight sessions. Distinct sessions never
// share state beyond this index; aborting one leaves the rest running.
type Tracker struct {
	runs sync.Map // session ID → *ActiveRun
}

// NewTracker creates an empty run tracker.
func NewTracker() *Tracker { return &Tracker{} }

// Register records an active session.
func (t *Tracker) Register(sessionID string, cancel context.CancelFunc) {
	t.runs.Store(sessionID, &ActiveRun{
		SessionID: sessionID,
		Cancel:    cancel,
		StartedAt: time.Now(),
	})
}

// Unregister removes a completed or cancelled session. The stored
// cancel func is invoked so the run's child context is always released,
// even when the session finished on its own.
func (t *Tracker) Unregister(sessionID string) {
	val, ok := t.runs.LoadAndDelete(sessionID)
	if !ok {
		return
	}
	val.(*ActiveRun).Cancel()
}

// Abort cancels one session by ID. Returns true if it was found.
func (t *Tracker) Abort(sessionID string) bool {
	val, ok := t.runs.Load(sessionID)
	if !ok {
		return false
	}
	val.(*ActiveRun).Cancel()
	t.runs.Delete(sessionID)
	return true
}

// AbortAll cancels every active session and returns their IDs.
func (t *Tracker) AbortAll() []string {
	var aborted []string
	t.runs.Range(func(key, val interface{}) bool {
		val.(*ActiveRun).Cancel()
		t.runs.Delete(key)
		aborted = append(aborted, key.(string))
		return true
	})
	return aborted
}

// Count returns the number of active sessions.
func (t *Tracker) Count() int {
	n := 0
	t.runs.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
