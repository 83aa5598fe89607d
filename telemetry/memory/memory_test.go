package memory

import (
	"context"
	"testing"
	"time"

	"github.com/corevx-run/corevx/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_New(t *testing.T) {
	t.Parallel()
	s := NewStore()
	require.NotNil(t, s)
	var _ telemetry.Store = s
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()

	rec := &telemetry.RunRecord{
		ID:       "rec-1",
		RunID:    "run-alpha",
		NodeName: "resize_node",
		Phase:    "executed",
		Metadata: map[string]any{"target": "cpu"},
		Timestamp: time.Now(),
		Sequence: 1,
	}

	require.NoError(t, s.Save(ctx, rec))

	loaded, err := s.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.RunID, loaded.RunID)
	assert.Equal(t, rec.NodeName, loaded.NodeName)
	assert.Equal(t, rec.Sequence, loaded.Sequence)
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	s := NewStore()
	_, err := s.Load(context.Background(), "does-not-exist")
	assert.Error(t, err)
}

func TestStore_ListFiltersByRun(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()

	for i, run := range []string{"run-a", "run-a", "run-b"} {
		require.NoError(t, s.Save(ctx, &telemetry.RunRecord{
			ID:       run + string(rune('0'+i)),
			RunID:    run,
			NodeName: "node",
			Sequence: i,
		}))
	}

	list, err := s.List(ctx, "run-a")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.True(t, list[0].Sequence <= list[1].Sequence)
}

func TestStore_DeleteAndClear(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &telemetry.RunRecord{ID: "r1", RunID: "run-x"}))
	require.NoError(t, s.Save(ctx, &telemetry.RunRecord{ID: "r2", RunID: "run-x"}))
	require.NoError(t, s.Save(ctx, &telemetry.RunRecord{ID: "r3", RunID: "run-y"}))

	require.NoError(t, s.Delete(ctx, "r1"))
	_, err := s.Load(ctx, "r1")
	assert.Error(t, err)

	require.NoError(t, s.Clear(ctx, "run-x"))
	list, err := s.List(ctx, "run-x")
	require.NoError(t, err)
	assert.Len(t, list, 0)

	list, err = s.List(ctx, "run-y")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
