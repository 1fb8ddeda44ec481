// Package providers implements the model endpoint adapter. It serializes
// the session transcript plus the computer tool schema into Anthropic
// Messages API requests and decodes replies into closed, typed content
// blocks the agent loop consumes.
package providers

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Block type tags.
const (
	BlockText       = "text"
	BlockThinking   = "thinking"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Stop reasons the loop cares about.
const (
	StopEndTurn = "end_turn"
	StopToolUse = "tool_use"
)

// Message is one conversational turn. Turns are immutable once appended
// to a transcript; the full ordered history is replayed on every call.
type Message struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// Block is one content block inside a turn. Type discriminates which of
// the remaining fields are meaningful: text, thinking (+signature),
// tool_use (id/name/input), or tool_result (tool_use_id/content/is_error).
type Block struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking; the signature must round-trip verbatim so the endpoint
	// accepts the transcript on the next call.
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string                 `json:"id,omitempty"`
	Name  string                 `json:"name,omitempty"`
	Input map[string]interface{} `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   []ResultContent `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// ResultContent is one payload item inside a tool_result block: plain
// text or a base64 image.
type ResultContent struct {
	Type   string       `json:"type"` // "text" or "image"
	Text   string       `json:"text,omitempty"`
	Source *ImageSource `json:"source,omitempty"`
}

// ImageSource carries base64 image data for vision input.
type ImageSource struct {
	Type      string `json:"type"` // always "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// TextBlock builds a text content block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ToolResultText builds a tool_result block carrying plain text.
func ToolResultText(toolUseID, text string, isErr bool) Block {
	return Block{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content:   []ResultContent{{Type: "text", Text: text}},
		IsError:   isErr,
	}
}

// ToolResultImage builds a tool_result block carrying a base64 image.
func ToolResultImage(toolUseID, mediaType, data string) Block {
	return Block{
		Type:      BlockToolResult,
		ToolUseID: toolUseID,
		Content: []ResultContent{{
			Type:   "image",
			Source: &ImageSource{Type: "base64", MediaType: mediaType, Data: data},
		}},
	}
}

// ComputerTool declares the computer-use capability with the session's
// display geometry.
type ComputerTool struct {
	Type            string `json:"type"`
	Name            string `json:"name"`
	DisplayWidthPx  int    `json:"display_width_px"`
	DisplayHeightPx int    `json:"display_height_px"`
	DisplayNumber   int    `json:"display_number"`
}

// MessagesRequest is the Anthropic Messages API request body.
type MessagesRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	Messages  []Message      `json:"messages"`
	Tools     []ComputerTool `json:"tools,omitempty"`
	System    string         `json:"system,omitempty"`
}

// MessagesResponse is the subset of the reply the loop consumes.
type MessagesResponse struct {
	ID         string  `json:"id"`
	Role       string  `json:"role"`
	Content    []Block `json:"content"`
	StopReason string  `json:"stop_reason"`
}
