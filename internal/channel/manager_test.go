package channel

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opencrew/internal/engine"
	"opencrew/internal/eventbus"
	"opencrew/internal/memory"
	"opencrew/internal/workflow"
)

// fakeCrew satisfies Crew without any LLM behind it.
type fakeCrew struct {
	bus      *eventbus.Bus
	store    *memory.Store
	injector *memory.Injector
	requests []string
	result   workflow.Result
}

func newFakeCrew(t *testing.T, withMemory bool) *fakeCrew {
	t.Helper()
	f := &fakeCrew{
		bus: eventbus.New(),
		result: workflow.Result{
			Status:      workflow.StatusCompleted,
			Success:     true,
			FinalOutput: "the deliverable",
		},
	}
	if withMemory {
		store, err := memory.NewStore(filepath.Join(t.TempDir(), "mem.db"))
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		f.store = store
		f.injector = memory.NewInjector(store)
	}
	return f
}

func (f *fakeCrew) Run(_ context.Context, request string) workflow.Result {
	f.requests = append(f.requests, request)
	return f.result
}

func (f *fakeCrew) Stats() engine.Stats {
	return engine.Stats{SessionID: "sess-1", Runs: len(f.requests), Provider: "fake", Model: "m", Tools: []string{"read_file"}}
}

func (f *fakeCrew) Bus() *eventbus.Bus         { return f.bus }
func (f *fakeCrew) Injector() *memory.Injector { return f.injector }
func (f *fakeCrew) Memory() *memory.Store      { return f.store }

func TestDispatchRunsCrewRequest(t *testing.T) {
	crew := newFakeCrew(t, false)
	m := NewManager(crew)

	reply := m.dispatch(context.Background(), InboundMessage{Text: "build me a widget"})

	assert.Equal(t, "the deliverable", reply)
	assert.Equal(t, []string{"build me a widget"}, crew.requests)
}

func TestDispatchFailedRun(t *testing.T) {
	crew := newFakeCrew(t, false)
	crew.result = workflow.Result{Status: workflow.StatusFailed, ErrorMessage: "provider down"}
	m := NewManager(crew)

	reply := m.dispatch(context.Background(), InboundMessage{Text: "build it"})

	assert.Contains(t, reply, "Crew run failed")
	assert.Contains(t, reply, "provider down")
}

func TestDispatchHelp(t *testing.T) {
	m := NewManager(newFakeCrew(t, false))

	reply := m.dispatch(context.Background(), InboundMessage{Text: "help"})

	assert.Contains(t, reply, "remember <key> <val>")
}

func TestDispatchStats(t *testing.T) {
	crew := newFakeCrew(t, false)
	m := NewManager(crew)
	m.dispatch(context.Background(), InboundMessage{Text: "do something"})

	reply := m.dispatch(context.Background(), InboundMessage{Text: "stats"})

	assert.Contains(t, reply, "Session: sess-1")
	assert.Contains(t, reply, "Runs: 1")
	assert.Contains(t, reply, "read_file")
}

func TestDispatchFactCommands(t *testing.T) {
	m := NewManager(newFakeCrew(t, true))
	ctx := context.Background()

	assert.Contains(t, m.dispatch(ctx, InboundMessage{Text: "facts"}), "no known facts")
	assert.Equal(t, "Remembered language.", m.dispatch(ctx, InboundMessage{Text: "remember language Go"}))
	assert.Contains(t, m.dispatch(ctx, InboundMessage{Text: "facts"}), "- language: Go")
	assert.Equal(t, "Forgot language.", m.dispatch(ctx, InboundMessage{Text: "forget language"}))
	assert.Contains(t, m.dispatch(ctx, InboundMessage{Text: "facts"}), "no known facts")
}

func TestDispatchFactCommandsMemoryDisabled(t *testing.T) {
	m := NewManager(newFakeCrew(t, false))
	ctx := context.Background()

	assert.Equal(t, "(memory disabled)", m.dispatch(ctx, InboundMessage{Text: "facts"}))
	assert.Equal(t, "(memory disabled)", m.dispatch(ctx, InboundMessage{Text: "remember k v"}))
}

func TestDispatchRememberUsage(t *testing.T) {
	m := NewManager(newFakeCrew(t, true))

	reply := m.dispatch(context.Background(), InboundMessage{Text: "remember onlykey"})

	assert.Contains(t, reply, "Usage: remember")
}

func TestDispatchEmpty(t *testing.T) {
	m := NewManager(newFakeCrew(t, false))

	assert.Equal(t, "", m.dispatch(context.Background(), InboundMessage{Text: "   "}))
}

func TestManagerStartStop(t *testing.T) {
	crew := newFakeCrew(t, false)
	console := NewConsoleWith(nopReader{}, &safeBuffer{})
	m := NewManager(crew, console)

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, console.IsRunning())

	require.NoError(t, m.Stop(context.Background()))
	assert.False(t, console.IsRunning())

	select {
	case <-m.Done():
	default:
		t.Fatal("Done should be closed after Stop")
	}
}
