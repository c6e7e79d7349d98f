package memory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
		Agent: "developer", TaskID: "t1",
		InputSummary: "build the widget", OutputSummary: "widget built",
	}))
	require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
		Agent: "developer", TaskID: "t2",
		InputSummary: "fix the widget", OutputSummary: "widget fixed",
	}))
	require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
		Agent: "reviewer", TaskID: "t3",
		InputSummary: "review", OutputSummary: "approved",
	}))

	snaps, err := s.Recent(ctx, "developer", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	// Newest first.
	assert.Equal(t, "t2", snaps[0].TaskID)
	assert.Equal(t, "t1", snaps[1].TaskID)
	assert.False(t, snaps[0].CreatedAt.IsZero())

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestRecentLimit(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
			Agent: "ux", TaskID: "t", InputSummary: "in", OutputSummary: "out",
		}))
	}

	snaps, err := s.Recent(ctx, "ux", 3)
	require.NoError(t, err)
	assert.Len(t, snaps, 3)
}

func TestPrune(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
			Agent: "ux", TaskID: "t", InputSummary: "in", OutputSummary: "out",
		}))
	}
	require.NoError(t, s.Prune(ctx, 4))

	snaps, err := s.Recent(ctx, "", 100)
	require.NoError(t, err)
	assert.Len(t, snaps, 4)
}

func TestFacts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetFact(ctx, "name", "Ada"))
	require.NoError(t, s.SetFact(ctx, "editor", "vim"))

	v, err := s.GetFact(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	// Replacement keeps a single row.
	require.NoError(t, s.SetFact(ctx, "name", "Grace"))
	v, err = s.GetFact(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, "Grace", v)

	facts, err := s.Facts(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "editor", facts[0].Key)
	assert.Equal(t, "name", facts[1].Key)

	require.NoError(t, s.DeleteFact(ctx, "editor"))
	facts, err = s.Facts(ctx)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestGetFactMissing(t *testing.T) {
	s := testStore(t)

	v, err := s.GetFact(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestInjectorContext(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSnapshot(ctx, Snapshot{
		Agent: "ux", TaskID: "t1",
		InputSummary: "design a login page", OutputSummary: "three-field layout",
	}))
	require.NoError(t, s.SetFact(ctx, "user_name", "Ada"))

	inj := NewInjector(s)
	block := inj.Context(ctx, "ux")

	assert.Contains(t, block, "Here is your latest memory:")
	assert.Contains(t, block, "[ux] design a login page: three-field layout")
	assert.Contains(t, block, "Current known facts:")
	assert.Contains(t, block, "- user_name: Ada")
}

func TestInjectorFactsText(t *testing.T) {
	s := testStore(t)
	inj := NewInjector(s)

	assert.Equal(t, "(no known facts)", inj.FactsText(context.Background()))

	require.NoError(t, s.SetFact(context.Background(), "lang", "go"))
	assert.Equal(t, "- lang: go", inj.FactsText(context.Background()))
}
