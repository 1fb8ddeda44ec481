// Package computer defines the host capability surface the agent drives:
// screen capture plus pointer and keyboard control. The OS-level driver is
// supplied by the host; this package only declares the contract and ships
// an in-memory simulator for tests, demos, and dry runs.
package computer

// MouseButton identifies which pointer button to press.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Executor is the host-provided capability for one physical display and
// input device. Implementations are not required to be safe for concurrent
// use; callers must serialize (see internal/dispatch).
type Executor interface {
	// CaptureScreen returns the primary display as encoded image bytes
	// (PNG or JPEG).
	CaptureScreen() ([]byte, error)

	MoveMouse(x, y int) error
	ClickMouse(x, y int, button MouseButton) error
	DoubleClickMouse(x, y int) error
	DragMouse(fromX, fromY, toX, toY int) error

	// Scroll scrolls at (x, y) by the given deltas. Positive dy scrolls
	// down, negative dy scrolls up.
	Scroll(x, y, dx, dy int) error

	TypeText(text string) error
	SendKey(name string) error

	// ScreenSize returns the display dimensions in pixels.
	ScreenSize() (width, height int, err error)
}
