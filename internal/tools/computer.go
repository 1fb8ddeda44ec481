// Package tools maps model tool invocations onto the host computer
// capability. One invocation becomes exactly one executor call; every
// failure is folded into an error Result so a bad action never aborts
// the session.
package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/deskpilot/deskpilot/internal/computer"
)

// Supported action names of the computer tool.
const (
	ActionScreenshot    = "screenshot"
	ActionMouseMove     = "mouse_move"
	ActionLeftClick     = "left_click"
	ActionRightClick    = "right_click"
	ActionMiddleClick   = "middle_click"
	ActionDoubleClick   = "double_click"
	ActionLeftClickDrag = "left_click_drag"
	ActionScroll        = "scroll"
	ActionType          = "type"
	ActionKey           = "key"
)

// Observer is invoked synchronously before each dispatch with the action
// name and raw parameters. It must not block; it cannot alter the outcome.
type Observer func(action string, params map[string]interface{})

// Computer dispatches tool invocations to an executor.
type Computer struct {
	exec     computer.Executor
	observer Observer
}

// NewComputer creates a dispatcher over the given executor.
func NewComputer(exec computer.Executor) *Computer {
	return &Computer{exec: exec}
}

// SetObserver installs the pre-dispatch observer hook.
func (c *Computer) SetObserver(obs Observer) {
	c.observer = obs
}

// Dispatch executes one action and normalizes the outcome into a Result.
// Executor failures (permission denials, invalid coordinates, platform
// errors) become error Results, never a raised error.
func (c *Computer) Dispatch(ctx context.Context, action string, params map[string]interface{}) (result *Result) {
	defer func() {
		if r := recover(); r != nil {
			result = ErrorResult(fmt.Sprintf("action %s panicked: %v", action, r))
		}
	}()

	if c.observer != nil {
		c.observer(action, params)
	}

	start := time.Now()
	result = c.dispatch(action, params)

	slog.Debug("action dispatched",
		"action", action,
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", result.IsError,
	)
	return result
}

func (c *Computer) dispatch(action string, params map[string]interface{}) *Result {
	switch action {
	case ActionScreenshot:
		raw, err := c.exec.CaptureScreen()
		if err != nil {
			return ErrorResult("Failed to capture screen: " + err.Error())
		}
		shot, err := computer.EncodeScreenshot(raw)
		if err != nil {
			return ErrorResult("Failed to encode screenshot: " + err.Error())
		}
		return ImageResult(shot)

	case ActionMouseMove:
		x, y, err := coordParam(params, "coordinate")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.MoveMouse(x, y); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Mouse moved successfully")

	case ActionLeftClick, ActionRightClick, ActionMiddleClick:
		x, y, err := coordParam(params, "coordinate")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.ClickMouse(x, y, buttonFor(action)); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Mouse clicked successfully")

	case ActionDoubleClick:
		x, y, err := coordParam(params, "coordinate")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.DoubleClickMouse(x, y); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Mouse double-clicked successfully")

	case ActionLeftClickDrag:
		fromX, fromY, err := coordParam(params, "start_coordinate")
		if err != nil {
			return ErrorResult(err.Error())
		}
		toX, toY, err := coordParam(params, "end_coordinate")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.DragMouse(fromX, fromY, toX, toY); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Mouse drag completed successfully")

	case ActionScroll:
		// Coordinate is optional for scroll; default to the origin.
		x, y, _ := coordParam(params, "coordinate")
		amount, err := intParam(params, "scroll_amount")
		if err != nil {
			return ErrorResult(err.Error())
		}
		dy, err := scrollDelta(params, amount)
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.Scroll(x, y, 0, dy); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Mouse scroll completed successfully")

	case ActionType:
		text, err := stringParam(params, "text")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.TypeText(text); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Typed text: " + text)

	case ActionKey:
		key, err := stringParam(params, "text")
		if err != nil {
			return ErrorResult(err.Error())
		}
		if err := c.exec.SendKey(key); err != nil {
			return ErrorResult(err.Error())
		}
		return NewResult("Pressed key: " + key)

	default:
		return ErrorResult("Unsupported action: " + action)
	}
}

func buttonFor(action string) computer.MouseButton {
	switch action {
	case ActionRightClick:
		return computer.ButtonRight
	case ActionMiddleClick:
		return computer.ButtonMiddle
	default:
		return computer.ButtonLeft
	}
}

// scrollDelta maps scroll_direction to a signed vertical delta:
// "down" scrolls +amount, "up" scrolls -amount.
func scrollDelta(params map[string]interface{}, amount int) (int, error) {
	dir, err := stringParam(params, "scroll_direction")
	if err != nil {
		return 0, err
	}
	switch dir {
	case "down":
		return amount, nil
	case "up":
		return -amount, nil
	default:
		return 0, fmt.Errorf("invalid scroll_direction: %q", dir)
	}
}

// Describe renders a short human-readable description of an invocation,
// used for progress events and audit logs.
func Describe(action string, params map[string]interface{}) string {
	switch action {
	case ActionScreenshot:
		return "screenshot"
	case ActionType, ActionKey:
		if text, err := stringParam(params, "text"); err == nil {
			return fmt.Sprintf("%s %q", action, text)
		}
	case ActionLeftClickDrag:
		fx, fy, err1 := coordParam(params, "start_coordinate")
		tx, ty, err2 := coordParam(params, "end_coordinate")
		if err1 == nil && err2 == nil {
			return fmt.Sprintf("%s [%d, %d] -> [%d, %d]", action, fx, fy, tx, ty)
		}
	case ActionScroll:
		if dir, err := stringParam(params, "scroll_direction"); err == nil {
			amount, _ := intParam(params, "scroll_amount")
			return fmt.Sprintf("scroll %s %d", dir, amount)
		}
	default:
		if x, y, err := coordParam(params, "coordinate"); err == nil {
			return fmt.Sprintf("%s [%d, %d]", action, x, y)
		}
	}
	return action
}
