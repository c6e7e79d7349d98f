package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"opencrew/internal/agent"
	"opencrew/internal/config"
	"opencrew/internal/eventbus"
	"opencrew/internal/llm"
	"opencrew/internal/memory"
	"opencrew/internal/security"
	"opencrew/internal/tool"
	"opencrew/internal/workflow"
)

// Engine assembles the whole crew from config and runs requests through
// the sequential workflow. One engine is one session.
type Engine struct {
	cfg       *config.Config
	sessionID string

	provider llm.Provider
	registry *tool.Registry
	policy   *security.ToolPolicy
	bus      *eventbus.Bus
	crew     map[string]*agent.Agent
	workflow *workflow.Sequential

	store    *memory.Store
	injector *memory.Injector

	mu   sync.Mutex
	runs int
}

// Stats summarizes a running engine for the shell's stats command.
type Stats struct {
	SessionID string        `json:"session_id"`
	Runs      int           `json:"runs"`
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Tools     []string      `json:"tools"`
	Agents    []agent.Stats `json:"agents"`
}

// New builds an engine from config. The keystore resolves API keys the
// config defers to secure storage; it may be nil when no key uses the
// placeholder.
func New(cfg *config.Config, keys *security.KeyStore) (*Engine, error) {
	provider, err := buildProvider(cfg, keys)
	if err != nil {
		return nil, err
	}
	return newEngine(cfg, provider)
}

// newEngine wires everything downstream of the provider.
func newEngine(cfg *config.Config, provider llm.Provider) (*Engine, error) {
	if err := security.ValidateDataDir(cfg.DataDir()); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	registry := tool.NewRegistry()
	for _, t := range []tool.Tool{
		tool.NewReadFileTool(),
		tool.NewWriteFileTool(),
		tool.NewListDirectoryTool(),
		tool.NewFetchDocsTool(),
	} {
		if err := registry.Register(t); err != nil {
			return nil, err
		}
	}
	if cfg.Security.ToolTimeoutSecs > 0 {
		registry.MaxExecution = time.Duration(cfg.Security.ToolTimeoutSecs) * time.Second
	}

	e := &Engine{
		cfg:       cfg,
		sessionID: uuid.NewString(),
		provider:  provider,
		registry:  registry,
		policy:    security.NewToolPolicy(cfg.Crew.AllowedTools),
		bus:       eventbus.New(),
	}

	if cfg.Memory.Enabled {
		dbPath := cfg.Memory.DatabasePath
		if dbPath == "" {
			dbPath = filepath.Join(cfg.DataDir(), "memory.db")
		}
		store, err := memory.NewStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open memory store: %w", err)
		}
		e.store = store
		e.injector = memory.NewInjector(store)
	}

	model := cfg.LLM.Model
	if model == "" {
		model = provider.DefaultModel()
	}
	e.crew = agent.NewCrew(agent.Deps{
		Provider: provider,
		Model:    model,
		Registry: registry,
		Policy:   e.policy,
		Bus:      e.bus,
	})

	wf, err := workflow.NewSequential(e.crew, e.bus)
	if err != nil {
		return nil, err
	}
	if e.injector != nil {
		wf.WithMemoryContext(e.injector.Context)
	}
	e.workflow = wf

	log.Info().
		Str("session", e.sessionID).
		Str("provider", provider.Name()).
		Str("model", model).
		Bool("memory", cfg.Memory.Enabled).
		Msg("engine ready")
	return e, nil
}

// buildProvider creates the configured provider, wrapped with the
// fallback provider when a fallback LLM is configured.
func buildProvider(cfg *config.Config, keys *security.KeyStore) (llm.Provider, error) {
	primary, err := llm.NewProvider(resolveAPIKey(cfg.LLM, keys))
	if err != nil {
		return nil, err
	}
	if cfg.FallbackLLM == nil {
		return primary, nil
	}
	fallback, err := llm.NewProvider(resolveAPIKey(*cfg.FallbackLLM, keys))
	if err != nil {
		return nil, fmt.Errorf("fallback provider: %w", err)
	}
	return llm.NewFallbackProvider(primary, fallback), nil
}

// resolveAPIKey swaps the keyring placeholder for the real key. A missing
// secret degrades to an empty key so local providers still work.
func resolveAPIKey(lc config.LLMConfig, keys *security.KeyStore) config.LLMConfig {
	if lc.APIKey != security.KeyringPlaceholder {
		return lc
	}
	lc.APIKey = ""
	if keys == nil {
		log.Warn().Str("provider", lc.Provider).Msg("config defers API key to keystore but none is available")
		return lc
	}
	val, err := keys.Get(apiKeySecretName(lc.Provider))
	if err != nil {
		log.Warn().Str("provider", lc.Provider).Err(err).Msg("API key not found in keystore")
		return lc
	}
	lc.APIKey = val
	return lc
}

// apiKeySecretName is the keystore entry name for a provider's API key.
func apiKeySecretName(provider string) string {
	return provider + "_api_key"
}

// Run executes one user request through the full crew workflow.
func (e *Engine) Run(ctx context.Context, request string) workflow.Result {
	e.bus.Publish(eventbus.TopicTaskStarted, request)
	res := e.workflow.Execute(ctx, request)
	e.bus.Publish(eventbus.TopicTaskCompleted, res.Status)

	e.mu.Lock()
	e.runs++
	e.mu.Unlock()

	if e.store != nil {
		e.snapshotRun(ctx, request, res)
	}
	if e.cfg.Crew.SaveSessions {
		if path, err := e.saveSession(request, res); err != nil {
			log.Warn().Err(err).Msg("failed to save session")
		} else {
			e.bus.Publish(eventbus.TopicSessionSaved, path)
		}
	}
	return res
}

// snapshotRun records each stage's input and output summaries so later
// runs can recall them.
func (e *Engine) snapshotRun(ctx context.Context, request string, res workflow.Result) {
	for _, step := range res.Steps {
		if step.Result == nil || !step.Result.Success {
			continue
		}
		snap := memory.Snapshot{
			Agent:         step.AgentRole,
			TaskID:        e.sessionID,
			InputSummary:  clip(request, 200),
			OutputSummary: clip(step.Result.Content, 500),
		}
		if err := e.store.SaveSnapshot(ctx, snap); err != nil {
			log.Warn().Str("agent", step.AgentRole).Err(err).Msg("failed to save memory snapshot")
			continue
		}
		e.bus.Publish(eventbus.TopicMemorySnapshot, step.AgentRole)
	}
	if keep := e.cfg.Memory.MaxSnapshots; keep > 0 {
		if err := e.store.Prune(ctx, keep); err != nil {
			log.Warn().Err(err).Msg("failed to prune memory snapshots")
		}
	}
}

// Bus exposes the event bus so channels can subscribe to progress events.
func (e *Engine) Bus() *eventbus.Bus { return e.bus }

// Injector exposes the memory injector, or nil when memory is disabled.
func (e *Engine) Injector() *memory.Injector { return e.injector }

// Memory exposes the fact store, or nil when memory is disabled.
func (e *Engine) Memory() *memory.Store { return e.store }

// SessionID returns this engine's session identifier.
func (e *Engine) SessionID() string { return e.sessionID }

// Stats reports the engine's current state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	runs := e.runs
	e.mu.Unlock()

	model := e.cfg.LLM.Model
	if model == "" {
		model = e.provider.DefaultModel()
	}
	st := Stats{
		SessionID: e.sessionID,
		Runs:      runs,
		Provider:  e.provider.Name(),
		Model:     model,
		Tools:     e.registry.Names(),
	}
	for _, role := range agent.Roles() {
		if a, ok := e.crew[role]; ok {
			st.Agents = append(st.Agents, a.Stats())
		}
	}
	return st
}

// Close releases engine resources.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

func clip(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
