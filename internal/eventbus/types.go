package eventbus

import "time"

// Topic represents an event topic.
type Topic string

const (
	TopicTaskStarted       Topic = "task_started"
	TopicTaskCompleted     Topic = "task_completed"
	TopicAgentStarted      Topic = "agent_started"
	TopicAgentCompleted    Topic = "agent_completed"
	TopicToolCall          Topic = "tool_call"
	TopicToolResult        Topic = "tool_result"
	TopicWorkflowStage     Topic = "workflow_stage"
	TopicSessionSaved      Topic = "session_saved"
	TopicMemorySnapshot    Topic = "memory_snapshot"
	TopicError             Topic = "error"
)

// Event is a message passed through the event bus.
type Event struct {
	Topic     Topic
	Payload   any
	Timestamp time.Time
}

// Handler processes an event.
type Handler func(Event)

// AgentPayload accompanies agent lifecycle topics.
type AgentPayload struct {
	Agent string
	Task  string
}

// ToolPayload accompanies tool call/result topics.
type ToolPayload struct {
	Agent    string
	ToolName string
	Success  bool
	Summary  string
}

// StagePayload accompanies workflow stage transitions.
type StagePayload struct {
	Stage string
	Index int
	Total int
}
