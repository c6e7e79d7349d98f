package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"opencrew/internal/eventbus"
	"opencrew/internal/llm"
	"opencrew/internal/parser"
	"opencrew/internal/security"
	"opencrew/internal/tool"
)

// Agent is one crew member. It asks the LLM to do a task, extracts any tool
// calls from the reply text, dispatches the allowed ones, and folds the
// tool results back into its answer.
type Agent struct {
	cfg      Config
	provider llm.Provider
	model    string

	parser   *parser.Parser
	registry *tool.Registry
	policy   *security.ToolPolicy
	bus      *eventbus.Bus

	mu         sync.Mutex
	executions int
}

// Deps are the shared collaborators an agent needs beyond its persona.
// Registry may be nil for agents that never use tools.
type Deps struct {
	Provider llm.Provider
	Model    string
	Registry *tool.Registry
	Policy   *security.ToolPolicy
	Bus      *eventbus.Bus
}

// New creates an agent from a role config and shared dependencies.
func New(cfg Config, deps Deps) *Agent {
	a := &Agent{
		cfg:      cfg,
		provider: deps.Provider,
		model:    deps.Model,
		registry: deps.Registry,
		policy:   deps.Policy,
		bus:      deps.Bus,
	}
	if deps.Registry != nil {
		a.parser = parser.New(deps.Registry)
	}
	return a
}

// Role returns the agent's role name.
func (a *Agent) Role() string { return a.cfg.Role }

// Stats returns lifetime execution statistics.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Stats{
		Role:       a.cfg.Role,
		Executions: a.executions,
		Model:      a.model,
		Provider:   a.provider.Name(),
	}
}

// ExecuteTask runs one task to completion. Failures come back as an
// unsuccessful Result, never an error; the workflow decides what a failed
// stage means.
func (a *Agent) ExecuteTask(ctx context.Context, tc TaskContext) Result {
	start := time.Now()
	a.publish(eventbus.TopicAgentStarted, eventbus.AgentPayload{
		Agent: a.cfg.Role, Task: tc.TaskDescription,
	})

	req := &llm.ChatRequest{
		Model:        a.model,
		SystemPrompt: a.systemPrompt(),
		Messages:     []llm.Message{{Role: "user", Content: tc.Prompt()}},
		MaxTokens:    a.cfg.MaxTokens,
		Temperature:  a.cfg.Temperature,
	}

	resp, err := a.provider.Chat(ctx, req)
	if err != nil {
		msg := fmt.Sprintf("Agent %s failed: %v", a.cfg.Role, err)
		a.publish(eventbus.TopicError, msg)
		return Result{
			AgentRole:     a.cfg.Role,
			ExecutionTime: time.Since(start),
			Success:       false,
			ErrorMessage:  msg,
		}
	}

	content := resp.Content
	toolCalls := 0
	if a.parser != nil {
		content, toolCalls = a.runToolCalls(ctx, content)
	}

	a.mu.Lock()
	a.executions++
	a.mu.Unlock()

	result := Result{
		Content:       content,
		AgentRole:     a.cfg.Role,
		ExecutionTime: time.Since(start),
		TokensUsed:    resp.Usage.InputTokens + resp.Usage.OutputTokens,
		ToolCallCount: toolCalls,
		Success:       true,
	}
	a.publish(eventbus.TopicAgentCompleted, eventbus.AgentPayload{
		Agent: a.cfg.Role, Task: tc.TaskDescription,
	})
	return result
}

// runToolCalls extracts tool calls from the reply, dispatches the ones the
// policy allows, and appends each outcome to the reply text so the final
// answer carries what actually happened.
func (a *Agent) runToolCalls(ctx context.Context, content string) (string, int) {
	parsed := a.parser.Parse(content)
	for _, perr := range parsed.ParseErrors {
		log.Debug().Str("agent", a.cfg.Role).Str("error", perr).Msg("parse error")
	}

	calls := parsed.ToolCalls
	if a.cfg.MaxToolCalls > 0 && len(calls) > a.cfg.MaxToolCalls {
		log.Warn().
			Str("agent", a.cfg.Role).
			Int("requested", len(calls)).
			Int("limit", a.cfg.MaxToolCalls).
			Msg("tool call limit reached, truncating")
		calls = calls[:a.cfg.MaxToolCalls]
	}

	executed := 0
	var b strings.Builder
	b.WriteString(content)
	for i := range calls {
		call := &calls[i]
		a.publish(eventbus.TopicToolCall, eventbus.ToolPayload{
			Agent: a.cfg.Role, ToolName: call.ToolName,
		})

		var res tool.Result
		if a.policy != nil && !a.policy.Allows(call.ToolName) {
			res = tool.Result{
				Status:       tool.StatusSkipped,
				ErrorMessage: fmt.Sprintf("tool '%s' is not allowed for this crew", call.ToolName),
			}
		} else {
			res = a.registry.Dispatch(ctx, call)
			executed++
		}

		a.publish(eventbus.TopicToolResult, eventbus.ToolPayload{
			Agent:    a.cfg.Role,
			ToolName: call.ToolName,
			Success:  res.Success(),
			Summary:  summarize(res.Message(), 120),
		})

		b.WriteString("\n\n")
		b.WriteString(res.Message())
	}

	return b.String(), executed
}

func (a *Agent) systemPrompt() string {
	prompt := a.cfg.SystemPrompt
	if a.registry == nil {
		return prompt
	}
	defs := a.registry.Definitions()
	if len(defs) == 0 {
		return prompt
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nYou can use the following tools by replying with a JSON block like:\n")
	b.WriteString("```json\n{\"tool_name\": \"<name>\", \"parameters\": {...}}\n```\n\n")
	for _, def := range defs {
		b.WriteString(def.PromptBlock())
		b.WriteString("\n")
	}
	return b.String()
}

func (a *Agent) publish(topic eventbus.Topic, payload any) {
	if a.bus != nil {
		a.bus.Publish(topic, payload)
	}
}

func summarize(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
