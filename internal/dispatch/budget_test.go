package dispatch

import (
	"strings"
	"testing"
	"time"
)

func TestActionBudget_AllowsUpToMax(t *testing.T) {
	b := NewActionBudget(3, time.Minute)
	for i := 0; i < 3; i++ {
		if err := b.Allow("sess-1"); err != nil {
			t.Fatalf("action %d refused: %v", i+1, err)
		}
	}
	err := b.Allow("sess-1")
	if err == nil {
		t.Fatal("expected refusal past the budget")
	}
	if !strings.Contains(err.Error(), "action budget exceeded") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestActionBudget_KeysAreIndependent(t *testing.T) {
	b := NewActionBudget(1, time.Minute)
	if err := b.Allow("sess-a"); err != nil {
		t.Fatalf("sess-a refused: %v", err)
	}
	if err := b.Allow("sess-b"); err != nil {
		t.Errorf("sess-b refused, budgets must be per key: %v", err)
	}
}

func TestActionBudget_WindowSlides(t *testing.T) {
	b := NewActionBudget(1, 10*time.Millisecond)
	if err := b.Allow("sess-1"); err != nil {
		t.Fatalf("first action refused: %v", err)
	}
	if err := b.Allow("sess-1"); err == nil {
		t.Fatal("expected refusal inside the window")
	}

	time.Sleep(15 * time.Millisecond)
	if err := b.Allow("sess-1"); err != nil {
		t.Errorf("action refused after the window slid: %v", err)
	}
}

func TestActionBudget_DisabledWhenMaxNonPositive(t *testing.T) {
	if b := NewActionBudget(0, time.Minute); b != nil {
		t.Error("expected nil budget for max=0")
	}
	if b := NewActionBudget(-5, time.Minute); b != nil {
		t.Error("expected nil budget for negative max")
	}
}

func TestActionBudget_CleanupDropsStaleKeys(t *testing.T) {
	b := NewActionBudget(5, 5*time.Millisecond)
	b.Allow("stale")
	time.Sleep(10 * time.Millisecond)
	b.Allow("fresh")

	b.Cleanup()

	b.mu.Lock()
	_, staleKept := b.windows["stale"]
	_, freshKept := b.windows["fresh"]
	b.mu.Unlock()

	if staleKept {
		t.Error("stale key survived cleanup")
	}
	if !freshKept {
		t.Error("fresh key dropped by cleanup")
	}
}
