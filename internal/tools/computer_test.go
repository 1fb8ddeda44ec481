package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/deskpilot/deskpilot/internal/computer"
)

func coord(x, y int) []interface{} {
	return []interface{}{float64(x), float64(y)}
}

func TestDispatch_PointerActions(t *testing.T) {
	tests := []struct {
		name        string
		action      string
		params      map[string]interface{}
		wantText    string
		wantJournal string
	}{
		{
			name:        "mouse_move",
			action:      ActionMouseMove,
			params:      map[string]interface{}{"coordinate": coord(100, 200)},
			wantText:    "Mouse moved successfully",
			wantJournal: "mouse_move 100,200",
		},
		{
			name:        "left_click",
			action:      ActionLeftClick,
			params:      map[string]interface{}{"coordinate": coord(10, 20)},
			wantText:    "Mouse clicked successfully",
			wantJournal: "left_click 10,20",
		},
		{
			name:        "right_click",
			action:      ActionRightClick,
			params:      map[string]interface{}{"coordinate": coord(5, 6)},
			wantText:    "Mouse clicked successfully",
			wantJournal: "right_click 5,6",
		},
		{
			name:        "middle_click",
			action:      ActionMiddleClick,
			params:      map[string]interface{}{"coordinate": coord(5, 6)},
			wantText:    "Mouse clicked successfully",
			wantJournal: "middle_click 5,6",
		},
		{
			name:        "double_click",
			action:      ActionDoubleClick,
			params:      map[string]interface{}{"coordinate": coord(7, 8)},
			wantText:    "Mouse double-clicked successfully",
			wantJournal: "double_click 7,8",
		},
		{
			name:   "drag",
			action: ActionLeftClickDrag,
			params: map[string]interface{}{
				"start_coordinate": coord(1, 2),
				"end_coordinate":   coord(3, 4),
			},
			wantText:    "Mouse drag completed successfully",
			wantJournal: "drag 1,2 -> 3,4",
		},
		{
			name:        "type",
			action:      ActionType,
			params:      map[string]interface{}{"text": "hello"},
			wantText:    "Typed text: hello",
			wantJournal: `type "hello"`,
		},
		{
			name:        "key",
			action:      ActionKey,
			params:      map[string]interface{}{"text": "Return"},
			wantText:    "Pressed key: Return",
			wantJournal: "key Return",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := computer.NewSimulator(1280, 800)
			comp := NewComputer(sim)

			res := comp.Dispatch(context.Background(), tt.action, tt.params)
			if res.IsError {
				t.Fatalf("unexpected error result: %s", res.ForModel)
			}
			if res.ForModel != tt.wantText {
				t.Errorf("result text = %q, want %q", res.ForModel, tt.wantText)
			}

			journal := sim.Journal()
			if len(journal) != 1 || journal[0] != tt.wantJournal {
				t.Errorf("journal = %v, want [%q]", journal, tt.wantJournal)
			}
		})
	}
}

func TestDispatch_ScrollDirectionMapping(t *testing.T) {
	tests := []struct {
		direction string
		amount    int
		wantDy    int
	}{
		{"down", 5, 5},
		{"up", 5, -5},
		{"down", 3, 3},
		{"up", 1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.direction, func(t *testing.T) {
			sim := computer.NewSimulator(1280, 800)
			comp := NewComputer(sim)

			res := comp.Dispatch(context.Background(), ActionScroll, map[string]interface{}{
				"coordinate":       coord(640, 400),
				"scroll_direction": tt.direction,
				"scroll_amount":    float64(tt.amount),
			})
			if res.IsError {
				t.Fatalf("unexpected error result: %s", res.ForModel)
			}
			if res.ForModel != "Mouse scroll completed successfully" {
				t.Errorf("result text = %q", res.ForModel)
			}

			journal := sim.Journal()
			want := fmt.Sprintf("scroll 640,400 delta 0,%d", tt.wantDy)
			if len(journal) != 1 || journal[0] != want {
				t.Errorf("journal = %v, want [%q]", journal, want)
			}
		})
	}
}

func TestDispatch_InvalidScrollDirection(t *testing.T) {
	comp := NewComputer(computer.NewSimulator(1280, 800))
	res := comp.Dispatch(context.Background(), ActionScroll, map[string]interface{}{
		"scroll_direction": "sideways",
		"scroll_amount":    float64(2),
	})
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.ForModel, "invalid scroll_direction") {
		t.Errorf("unexpected message: %q", res.ForModel)
	}
}

func TestDispatch_UnsupportedAction(t *testing.T) {
	comp := NewComputer(computer.NewSimulator(1280, 800))
	res := comp.Dispatch(context.Background(), "fly", nil)
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if res.ForModel != "Unsupported action: fly" {
		t.Errorf("message = %q, want %q", res.ForModel, "Unsupported action: fly")
	}
}

func TestDispatch_ExecutorFailureIsRecoverable(t *testing.T) {
	sim := computer.NewSimulator(1280, 800)
	sim.Fail = errors.New("permission denied")
	comp := NewComputer(sim)

	res := comp.Dispatch(context.Background(), ActionLeftClick, map[string]interface{}{
		"coordinate": coord(1, 1),
	})
	if !res.IsError {
		t.Fatal("expected error result, not a raised error")
	}
	if !strings.Contains(res.ForModel, "permission denied") {
		t.Errorf("unexpected message: %q", res.ForModel)
	}
}

func TestDispatch_MissingCoordinate(t *testing.T) {
	comp := NewComputer(computer.NewSimulator(1280, 800))
	res := comp.Dispatch(context.Background(), ActionLeftClick, map[string]interface{}{})
	if !res.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(res.ForModel, "coordinate") {
		t.Errorf("unexpected message: %q", res.ForModel)
	}
}

func TestDispatch_Screenshot(t *testing.T) {
	comp := NewComputer(computer.NewSimulator(64, 48))
	res := comp.Dispatch(context.Background(), ActionScreenshot, nil)
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.ForModel)
	}
	if res.Image == nil {
		t.Fatal("expected image result")
	}
	if res.Image.MediaType != "image/jpeg" {
		t.Errorf("media type = %q, want image/jpeg", res.Image.MediaType)
	}
	if res.Image.Data == "" {
		t.Error("empty image data")
	}
}

func TestDispatch_ObserverSeesActionBeforeExecution(t *testing.T) {
	sim := computer.NewSimulator(1280, 800)
	comp := NewComputer(sim)

	var seenAction string
	var seenBeforeExec bool
	comp.SetObserver(func(action string, params map[string]interface{}) {
		seenAction = action
		seenBeforeExec = len(sim.Journal()) == 0
	})

	comp.Dispatch(context.Background(), ActionMouseMove, map[string]interface{}{
		"coordinate": coord(9, 9),
	})
	if seenAction != ActionMouseMove {
		t.Errorf("observer saw %q, want %q", seenAction, ActionMouseMove)
	}
	if !seenBeforeExec {
		t.Error("observer ran after the executor call")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		action string
		params map[string]interface{}
		want   string
	}{
		{"click", ActionLeftClick, map[string]interface{}{"coordinate": coord(100, 200)}, "left_click [100, 200]"},
		{"type", ActionType, map[string]interface{}{"text": "hi"}, `type "hi"`},
		{"scroll", ActionScroll, map[string]interface{}{"scroll_direction": "up", "scroll_amount": float64(4)}, "scroll up 4"},
		{"drag", ActionLeftClickDrag, map[string]interface{}{"start_coordinate": coord(1, 2), "end_coordinate": coord(3, 4)}, "left_click_drag [1, 2] -> [3, 4]"},
		{"screenshot", ActionScreenshot, nil, "screenshot"},
		{"bare action", ActionMouseMove, nil, "mouse_move"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.action, tt.params); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}
