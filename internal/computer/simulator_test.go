package computer

import (
	"errors"
	"testing"
)

func TestSimulator_JournalsActionsInOrder(t *testing.T) {
	sim := NewSimulator(800, 600)

	sim.MoveMouse(10, 20)
	sim.ClickMouse(10, 20, ButtonLeft)
	sim.Scroll(10, 20, 0, 5)
	sim.TypeText("hello")
	sim.SendKey("Return")
	sim.DragMouse(10, 20, 30, 40)

	want := []string{
		"mouse_move 10,20",
		"left_click 10,20",
		"scroll 10,20 delta 0,5",
		`type "hello"`,
		"key Return",
		"drag 10,20 -> 30,40",
	}
	journal := sim.Journal()
	if len(journal) != len(want) {
		t.Fatalf("journal = %v", journal)
	}
	for i := range want {
		if journal[i] != want[i] {
			t.Errorf("journal[%d] = %q, want %q", i, journal[i], want[i])
		}
	}
}

func TestSimulator_TracksCursor(t *testing.T) {
	sim := NewSimulator(800, 600)

	sim.MoveMouse(100, 150)
	if x, y := sim.Cursor(); x != 100 || y != 150 {
		t.Errorf("cursor = (%d, %d) after move", x, y)
	}

	sim.DragMouse(100, 150, 300, 400)
	if x, y := sim.Cursor(); x != 300 || y != 400 {
		t.Errorf("cursor = (%d, %d) after drag, want drag end", x, y)
	}
}

func TestSimulator_FailPropagates(t *testing.T) {
	sim := NewSimulator(800, 600)
	sim.Fail = errors.New("display gone")

	if err := sim.MoveMouse(1, 1); err == nil {
		t.Error("MoveMouse: expected error")
	}
	if _, err := sim.CaptureScreen(); err == nil {
		t.Error("CaptureScreen: expected error")
	}
	if len(sim.Journal()) != 0 {
		t.Error("failed actions must not be journaled")
	}
}

func TestSimulator_ScreenSize(t *testing.T) {
	sim := NewSimulator(1280, 800)
	w, h, err := sim.ScreenSize()
	if err != nil {
		t.Fatalf("ScreenSize: %v", err)
	}
	if w != 1280 || h != 800 {
		t.Errorf("size = %dx%d", w, h)
	}
}
