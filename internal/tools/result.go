package tools

import "github.com/deskpilot/deskpilot/internal/computer"

// Result is the unified return type from action dispatch.
type Result struct {
	ForModel string               // text payload sent back to the model
	Image    *computer.Screenshot // image payload (screenshot action)
	IsError  bool                 // marks a failed action
}

func NewResult(forModel string) *Result {
	return &Result{ForModel: forModel}
}

func ErrorResult(message string) *Result {
	return &Result{ForModel: message, IsError: true}
}

func ImageResult(shot *computer.Screenshot) *Result {
	return &Result{Image: shot}
}
