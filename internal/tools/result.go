// ABOUTME: Tool response types mirroring the MCP tool result shape.
// ABOUTME: Failures are encoded as text content, never as protocol errors.

package tools

// Content is one tagged content block in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Result is the outcome of one tool invocation. Content always holds at
// least one block; StructuredContent optionally mirrors the same
// information in typed form.
type Result struct {
	Content           []Content `json:"content"`
	StructuredContent any       `json:"structuredContent,omitempty"`
	IsError           bool      `json:"isError,omitempty"`
}

// TextResult creates a successful Result with a single text block.
func TextResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// StructuredResult creates a successful Result with a text summary and a
// structured payload mirroring it.
func StructuredResult(text string, structured any) *Result {
	return &Result{
		Content:           []Content{{Type: "text", Text: text}},
		StructuredContent: structured,
	}
}

// ErrorResult creates a failure Result. The message is the full caller-facing
// report; the transport still delivers it as a normal tool response.
func ErrorResult(message string) *Result {
	return &Result{
		Content: []Content{{Type: "text", Text: message}},
		IsError: true,
	}
}
