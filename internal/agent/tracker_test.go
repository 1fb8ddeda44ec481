package agent

import (
	"context"
	"testing"
)

func TestTracker_AbortCancelsOnlyTheTarget(t *testing.T) {
	tr := NewTracker()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	tr.Register("s1", cancel1)
	tr.Register("s2", cancel2)

	if !tr.Abort("s1") {
		t.Fatal("Abort(s1) = false")
	}
	if ctx1.Err() == nil {
		t.Error("s1 context not cancelled")
	}
	if ctx2.Err() != nil {
		t.Error("s2 context cancelled, sessions must be independent")
	}
	if tr.Count() != 1 {
		t.Errorf("count = %d, want 1", tr.Count())
	}
}

func TestTracker_UnregisterReleasesContext(t *testing.T) {
	tr := NewTracker()

	// A session that completes on its own is unregistered, never
	// aborted; its child context must still be released.
	ctx, cancel := context.WithCancel(context.Background())
	tr.Register("s1", cancel)

	tr.Unregister("s1")
	if ctx.Err() == nil {
		t.Error("run context still live after Unregister")
	}
	if tr.Count() != 0 {
		t.Errorf("count = %d, want 0", tr.Count())
	}

	// Unregister of an unknown session is a no-op.
	tr.Unregister("ghost")
}

func TestTracker_AbortUnknownSession(t *testing.T) {
	tr := NewTracker()
	if tr.Abort("nope") {
		t.Error("Abort on unknown session returned true")
	}
}

func TestTracker_AbortAll(t *testing.T) {
	tr := NewTracker()

	_, cancel1 := context.WithCancel(context.Background())
	_, cancel2 := context.WithCancel(context.Background())
	tr.Register("s1", cancel1)
	tr.Register("s2", cancel2)

	aborted := tr.AbortAll()
	if len(aborted) != 2 {
		t.Errorf("aborted = %v", aborted)
	}
	if tr.Count() != 0 {
		t.Errorf("count = %d after AbortAll", tr.Count())
	}
}
