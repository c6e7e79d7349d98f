package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"
)

// FuzzyThreshold is the minimum similarity for a misspelled tool name to
// resolve to a registered one.
const FuzzyThreshold = 0.6

// fuzzyPenalty is applied to a call's confidence when its name only
// resolved via fuzzy matching.
const fuzzyPenalty = 0.8

// Registry maps tool names to tools. Registration happens at startup;
// during request processing the registry is treated as read-only.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string // registration order, used for fuzzy tie-breaking

	// MaxExecution caps a single dispatch. Zero means no cap.
	MaxExecution time.Duration
}

type entry struct {
	tool Tool
	def  Definition // memoized
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a tool under its name. Registering a duplicate name is an
// error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s is already registered", name)
	}
	r.tools[name] = &entry{tool: t, def: DefinitionOf(t)}
	r.order = append(r.order, name)
	return nil
}

// Unregister removes a tool if present; it is a no-op otherwise.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; !exists {
		return
	}
	delete(r.tools, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a tool by exact name, or nil if not registered.
func (r *Registry) Get(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.tools[name]; ok {
		return e.tool
	}
	return nil
}

// Names returns all registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Definitions returns the definitions of all registered tools in
// registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].def)
	}
	return defs
}

// FuzzyMatch returns the registered name most similar to name, if the
// similarity meets threshold. Ties go to the first-registered name.
func (r *Registry) FuzzyMatch(name string, threshold float64) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	bestScore := 0.0
	for _, registered := range r.order {
		score := Similarity(name, registered)
		if score >= threshold && score > bestScore {
			best = registered
			bestScore = score
		}
	}
	return best, best != ""
}

// Dispatch resolves a call to a registered tool and runs it through the
// safe execution wrapper. A fuzzy resolution rewrites the call's name and
// applies a confidence penalty so the caller sees what actually ran. An
// unresolvable name produces an ERROR result listing the registered tools;
// Dispatch never returns an error or panics.
func (r *Registry) Dispatch(ctx context.Context, call *Call) Result {
	t := r.Get(call.ToolName)

	if t == nil {
		if resolved, ok := r.FuzzyMatch(call.ToolName, FuzzyThreshold); ok {
			call.ToolName = resolved
			call.Confidence *= fuzzyPenalty
			t = r.Get(resolved)
		}
	}

	if t == nil {
		return Errorf("tool '%s' not found. Available tools: %s",
			call.ToolName, strings.Join(r.Names(), ", "))
	}

	if r.MaxExecution <= 0 {
		return SafeExecute(ctx, t, call.Parameters)
	}
	return r.executeWithDeadline(ctx, t, call)
}

// executeWithDeadline runs the tool with a timer. There is no mid-call
// interruption: on timeout the result is an error and the goroutine is
// left to finish on its own.
func (r *Registry) executeWithDeadline(ctx context.Context, t Tool, call *Call) Result {
	ctx, cancel := context.WithTimeout(ctx, r.MaxExecution)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- SafeExecute(ctx, t, call.Parameters)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Result{
			Status:        StatusError,
			ErrorMessage:  fmt.Sprintf("tool '%s' exceeded the execution limit of %s", call.ToolName, r.MaxExecution),
			ExecutionTime: r.MaxExecution,
		}
	}
}

// Similarity is a normalized edit-distance ratio in [0,1]: identical
// strings score 1, disjoint strings approach 0. Comparison is
// case-insensitive.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1.0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}
