package memory

import (
	"context"
	"fmt"
	"strings"
)

// Injector builds the context block an agent sees at the top of its task:
// recent snapshots for that agent plus all known facts.
type Injector struct {
	store    *Store
	MaxItems int
}

// NewInjector wraps a store with the default snapshot window.
func NewInjector(store *Store) *Injector {
	return &Injector{store: store, MaxItems: 5}
}

// Context renders the memory block for one agent. Storage errors degrade
// to an empty block; stale memory is never worth failing a task over.
func (i *Injector) Context(ctx context.Context, agent string) string {
	lines := []string{"Here is your latest memory:"}

	recent, err := i.store.Recent(ctx, agent, i.MaxItems)
	if err == nil {
		for _, snap := range recent {
			lines = append(lines, fmt.Sprintf("[%s] %s: %s",
				agent,
				strings.TrimSpace(snap.InputSummary),
				strings.TrimSpace(snap.OutputSummary)))
		}
	}

	facts, err := i.store.Facts(ctx)
	if err == nil && len(facts) > 0 {
		lines = append(lines, "\nCurrent known facts:")
		for _, f := range facts {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.Key, f.Value))
		}
	}

	return strings.Join(lines, "\n")
}

// FactsText renders all facts as a bullet list for the shell's facts
// command.
func (i *Injector) FactsText(ctx context.Context) string {
	facts, err := i.store.Facts(ctx)
	if err != nil || len(facts) == 0 {
		return "(no known facts)"
	}
	var b strings.Builder
	for idx, f := range facts {
		if idx > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s: %s", f.Key, f.Value)
	}
	return b.String()
}
