package computer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"

	"github.com/disintegration/imaging"
)

// Simulator is an in-memory Executor. It tracks the cursor and keeps an
// ordered journal of every action, and renders a solid-color frame on
// capture. Used by tests, demos, and CLI runs where no host driver is
// attached.
type Simulator struct {
	mu      sync.Mutex
	width   int
	height  int
	cursorX int
	cursorY int
	journal []string

	// Fail, when non-nil, is returned from every action call. Lets tests
	// exercise recoverable action failures.
	Fail error
}

// NewSimulator creates a simulated display of the given size.
func NewSimulator(width, height int) *Simulator {
	return &Simulator{width: width, height: height}
}

func (s *Simulator) record(format string, args ...interface{}) {
	s.journal = append(s.journal, fmt.Sprintf(format, args...))
}

// Journal returns a copy of the recorded actions in execution order.
func (s *Simulator) Journal() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.journal))
	copy(out, s.journal)
	return out
}

// Cursor returns the current simulated pointer position.
func (s *Simulator) Cursor() (x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursorX, s.cursorY
}

func (s *Simulator) CaptureScreen() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return nil, s.Fail
	}
	s.record("screenshot")

	frame := imaging.New(s.width, s.height, color.NRGBA{R: 38, G: 38, B: 48, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("render frame: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Simulator) MoveMouse(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.cursorX, s.cursorY = x, y
	s.record("mouse_move %d,%d", x, y)
	return nil
}

func (s *Simulator) ClickMouse(x, y int, button MouseButton) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.cursorX, s.cursorY = x, y
	s.record("%s_click %d,%d", button, x, y)
	return nil
}

func (s *Simulator) DoubleClickMouse(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.cursorX, s.cursorY = x, y
	s.record("double_click %d,%d", x, y)
	return nil
}

func (s *Simulator) DragMouse(fromX, fromY, toX, toY int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.cursorX, s.cursorY = toX, toY
	s.record("drag %d,%d -> %d,%d", fromX, fromY, toX, toY)
	return nil
}

func (s *Simulator) Scroll(x, y, dx, dy int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.record("scroll %d,%d delta %d,%d", x, y, dx, dy)
	return nil
}

func (s *Simulator) TypeText(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.record("type %q", text)
	return nil
}

func (s *Simulator) SendKey(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	s.record("key %s", name)
	return nil
}

func (s *Simulator) ScreenSize() (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return 0, 0, s.Fail
	}
	return s.width, s.height, nil
}
