package channel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"opencrew/internal/engine"
	"opencrew/internal/eventbus"
	"opencrew/internal/memory"
	"opencrew/internal/workflow"
)

// Crew is the engine surface the manager needs. Satisfied by
// *engine.Engine.
type Crew interface {
	Run(ctx context.Context, request string) workflow.Result
	Stats() engine.Stats
	Bus() *eventbus.Bus
	Injector() *memory.Injector
	Memory() *memory.Store
}

const helpText = `Commands:
  help                  show this help
  stats                 show session statistics
  facts                 list remembered facts
  remember <key> <val>  store a fact
  forget <key>          delete a fact
  exit                  quit

Anything else is sent to the crew as a request.`

// Manager routes messages between channels and the crew engine. Commands
// are answered directly; everything else becomes a workflow run.
type Manager struct {
	engine   Crew
	channels []Channel

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewManager creates a manager over an engine and its channels.
func NewManager(e Crew, channels ...Channel) *Manager {
	return &Manager{engine: e, channels: channels, done: make(chan struct{})}
}

// Start subscribes to progress events and brings up every channel.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.started = true
	m.mu.Unlock()

	m.subscribeProgress()

	for _, ch := range m.channels {
		ch := ch
		ch.OnMessage(func(msg InboundMessage) {
			m.handle(ctx, ch, msg)
		})
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("start %s channel: %w", ch.Name(), err)
		}
		log.Info().Str("channel", ch.Name()).Msg("channel started")
	}
	return nil
}

// Stop shuts down all channels.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	var firstErr error
	for _, ch := range m.channels {
		if err := ch.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	close(m.done)
	return firstErr
}

// Done closes when the manager has been stopped, including by the exit
// command.
func (m *Manager) Done() <-chan struct{} { return m.done }

func (m *Manager) handle(ctx context.Context, ch Channel, msg InboundMessage) {
	reply := m.dispatch(ctx, msg)
	if reply == "" {
		return
	}
	if err := ch.Send(ctx, OutboundMessage{ChatID: msg.ChatID, Text: reply}); err != nil {
		log.Warn().Str("channel", ch.Name()).Err(err).Msg("failed to send reply")
	}
}

func (m *Manager) dispatch(ctx context.Context, msg InboundMessage) string {
	text := strings.TrimSpace(msg.Text)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	switch strings.ToLower(fields[0]) {
	case "help":
		return helpText
	case "stats":
		return m.statsText()
	case "facts":
		if m.engine.Injector() == nil {
			return "(memory disabled)"
		}
		return m.engine.Injector().FactsText(ctx)
	case "remember":
		return m.rememberFact(ctx, fields[1:])
	case "forget":
		return m.forgetFact(ctx, fields[1:])
	case "exit", "quit":
		go m.Stop(context.Background())
		return "Bye."
	}

	res := m.engine.Run(ctx, text)
	if !res.Success {
		return "❌ Crew run failed: " + res.ErrorMessage
	}
	return res.FinalOutput
}

func (m *Manager) statsText() string {
	st := m.engine.Stats()
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", st.SessionID)
	fmt.Fprintf(&b, "Provider: %s (%s)\n", st.Provider, st.Model)
	fmt.Fprintf(&b, "Runs: %d\n", st.Runs)
	fmt.Fprintf(&b, "Tools: %s\n", strings.Join(st.Tools, ", "))
	for _, a := range st.Agents {
		fmt.Fprintf(&b, "  %s: %d executions\n", a.Role, a.Executions)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Manager) rememberFact(ctx context.Context, args []string) string {
	if m.engine.Memory() == nil {
		return "(memory disabled)"
	}
	if len(args) < 2 {
		return "Usage: remember <key> <value>"
	}
	key, value := args[0], strings.Join(args[1:], " ")
	if err := m.engine.Memory().SetFact(ctx, key, value); err != nil {
		return "Failed to store fact: " + err.Error()
	}
	return fmt.Sprintf("Remembered %s.", key)
}

func (m *Manager) forgetFact(ctx context.Context, args []string) string {
	if m.engine.Memory() == nil {
		return "(memory disabled)"
	}
	if len(args) != 1 {
		return "Usage: forget <key>"
	}
	if err := m.engine.Memory().DeleteFact(ctx, args[0]); err != nil {
		return "Failed to delete fact: " + err.Error()
	}
	return fmt.Sprintf("Forgot %s.", args[0])
}

// subscribeProgress relays workflow events to channels that can show
// progress lines.
func (m *Manager) subscribeProgress() {
	bus := m.engine.Bus()
	bus.Subscribe(eventbus.TopicWorkflowStage, func(e eventbus.Event) {
		if sp, ok := e.Payload.(eventbus.StagePayload); ok {
			m.notify(fmt.Sprintf("🔄 [%d/%d] %s working...", sp.Index+1, sp.Total, sp.Stage))
		}
	})
	bus.Subscribe(eventbus.TopicToolResult, func(e eventbus.Event) {
		tp, ok := e.Payload.(eventbus.ToolPayload)
		if !ok {
			return
		}
		icon := "✅"
		if !tp.Success {
			icon = "❌"
		}
		m.notify(fmt.Sprintf("%s %s used %s", icon, tp.Agent, tp.ToolName))
	})
	bus.Subscribe(eventbus.TopicSessionSaved, func(e eventbus.Event) {
		if path, ok := e.Payload.(string); ok {
			m.notify("💾 Session saved: " + path)
		}
	})
}

func (m *Manager) notify(text string) {
	for _, ch := range m.channels {
		if n, ok := ch.(Notifier); ok {
			n.Notify(text)
		}
	}
}
