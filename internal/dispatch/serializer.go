// Package dispatch serializes Action Executor calls. The host has one
// physical pointer and keyboard, so at most one action may be in flight
// process-wide, no matter how many sessions are running.
package dispatch

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Serializer admits one action at a time across all sessions.
type Serializer struct {
	sem *semaphore.Weighted
}

// NewSerializer creates a process-wide dispatch serializer.
func NewSerializer() *Serializer {
	return &Serializer{sem: semaphore.NewWeighted(1)}
}

// Do runs fn while holding the global dispatch slot. It blocks until the
// slot is free or ctx is cancelled. fn itself is never interrupted once
// started: an in-flight executor call is allowed to finish.
func (s *Serializer) Do(ctx context.Context, fn func()) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)
	fn()
	return nil
}
