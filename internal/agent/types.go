package agent

import (
	"fmt"
	"strings"
	"time"
)

// Config describes one crew agent: its persona and its execution limits.
type Config struct {
	Role      string `json:"role"`
	Goal      string `json:"goal"`
	Backstory string `json:"backstory"`

	SystemPrompt string `json:"-"` // full role prompt, built by the role constructors

	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	MaxToolCalls int     `json:"max_tool_calls"`
}

// TaskContext is everything an agent sees for one task.
type TaskContext struct {
	TaskDescription string   `json:"task_description"`
	ExpectedOutput  string   `json:"expected_output"`
	PreviousResults []string `json:"previous_results,omitempty"`
	MemoryContext   string   `json:"memory_context,omitempty"`
	UserInput       string   `json:"user_input,omitempty"`
}

// Prompt renders the context as the user message for the LLM.
func (c TaskContext) Prompt() string {
	var parts []string

	if c.UserInput != "" {
		parts = append(parts, "User Request: "+c.UserInput)
	}
	parts = append(parts,
		"Task: "+c.TaskDescription,
		"Expected Output: "+c.ExpectedOutput,
	)

	if len(c.PreviousResults) > 0 {
		var b strings.Builder
		b.WriteString("Previous Results:")
		for i, result := range c.PreviousResults {
			fmt.Fprintf(&b, "\n%d. %s", i+1, result)
		}
		parts = append(parts, b.String())
	}

	if c.MemoryContext != "" {
		parts = append(parts, "Memory Context: "+c.MemoryContext)
	}

	return strings.Join(parts, "\n\n")
}

// Result is the outcome of one agent task.
type Result struct {
	Content       string        `json:"content"`
	AgentRole     string        `json:"agent_role"`
	ExecutionTime time.Duration `json:"execution_time"`
	TokensUsed    int           `json:"tokens_used,omitempty"`
	ToolCallCount int           `json:"tool_call_count,omitempty"`
	Success       bool          `json:"success"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// Stats summarizes an agent's lifetime activity.
type Stats struct {
	Role       string `json:"role"`
	Executions int    `json:"executions"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
}
