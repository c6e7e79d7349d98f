package tool

import (
	"fmt"
	"strings"
	"time"
)

// Status classifies the outcome of a tool execution.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusPartial Status = "partial" // partially completed
	StatusSkipped Status = "skipped" // skipped due to policy or validation
)

// Parameter describes one formal argument of a tool.
type Parameter struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string", "number", "boolean", "array", "object"
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	Default     any      `json:"default,omitempty"`
	EnumValues  []string `json:"enum_values,omitempty"`
}

// Definition is the immutable description of a tool: its registry name,
// what it does, and the ordered list of parameters it accepts.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Schema renders the definition as a JSON-schema-shaped map, suitable for
// embedding in a system prompt or handing to an LLM API.
func (d Definition) Schema() map[string]any {
	properties := make(map[string]any, len(d.Parameters))
	var required []string

	for _, p := range d.Parameters {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if len(p.EnumValues) > 0 {
			prop["enum"] = p.EnumValues
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        d.Name,
			"description": d.Description,
			"parameters": map[string]any{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		},
	}
}

// PromptBlock renders the definition as a human-readable usage block for
// inclusion in a system prompt.
func (d Definition) PromptBlock() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tool: %s\n", d.Name)
	fmt.Fprintf(&b, "Description: %s\n", d.Description)
	if len(d.Parameters) > 0 {
		b.WriteString("Parameters:\n")
	}
	for _, p := range d.Parameters {
		req := "optional"
		if p.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "  - %s (%s, %s): %s", p.Name, p.Type, req, p.Description)
		if p.Default != nil {
			fmt.Fprintf(&b, " [default: %v]", p.Default)
		}
		if len(p.EnumValues) > 0 {
			fmt.Fprintf(&b, " [one of: %s]", strings.Join(p.EnumValues, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Call is one candidate invocation extracted from model output. The name may
// not yet be validated against a registry.
type Call struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	RawText    string         `json:"raw_text,omitempty"` // exact substring the extractor matched
	Confidence float64        `json:"confidence"`
}

// NewCall builds a Call with a non-nil parameter map and full confidence.
func NewCall(name string, params map[string]any) Call {
	if params == nil {
		params = map[string]any{}
	}
	return Call{ToolName: name, Parameters: params, Confidence: 1.0}
}

// Result is the outcome of executing a Call.
type Result struct {
	Status        Status         `json:"status"`
	Content       string         `json:"content,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// Success reports whether the call completed successfully.
func (r Result) Success() bool { return r.Status == StatusSuccess }

// Message formats the result for inclusion in an LLM conversation.
func (r Result) Message() string {
	if r.Success() {
		return "✅ Tool executed successfully:\n" + r.Content
	}
	msg := r.ErrorMessage
	if msg == "" {
		msg = "Unknown error"
	}
	return "❌ Tool execution failed: " + msg
}

// Errorf builds an ERROR result with a formatted message.
func Errorf(format string, args ...any) Result {
	return Result{Status: StatusError, ErrorMessage: fmt.Sprintf(format, args...)}
}
