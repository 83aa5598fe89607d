package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/corevx-run/corevx/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telemetry.db")
	s, err := NewStore(Options{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndLoad(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	rec := &telemetry.RunRecord{
		ID:        "rec-1",
		RunID:     "run-1",
		NodeName:  "resize_node",
		Phase:     "executed",
		Timestamp: time.Now().UTC(),
		Sequence:  2,
		Metadata:  map[string]any{"target": "cpu"},
	}

	require.NoError(t, s.Save(ctx, rec))

	loaded, err := s.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.NodeName, loaded.NodeName)
	assert.Equal(t, rec.Sequence, loaded.Sequence)
	assert.Equal(t, "cpu", loaded.Metadata["target"])
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	assert.Error(t, err)
}

func TestStore_ListOrderedBySequence(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	for i := 2; i >= 0; i-- {
		require.NoError(t, s.Save(ctx, &telemetry.RunRecord{
			ID:        "rec-" + string(rune('a'+i)),
			RunID:     "run-x",
			NodeName:  "node",
			Timestamp: time.Now().UTC(),
			Sequence:  i,
		}))
	}

	list, err := s.List(ctx, "run-x")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 0, list[0].Sequence)
	assert.Equal(t, 2, list[2].Sequence)
}

func TestStore_DeleteAndClear(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &telemetry.RunRecord{ID: "r1", RunID: "run-y", Timestamp: time.Now()}))
	require.NoError(t, s.Save(ctx, &telemetry.RunRecord{ID: "r2", RunID: "run-y", Timestamp: time.Now()}))

	require.NoError(t, s.Delete(ctx, "r1"))
	_, err := s.Load(ctx, "r1")
	assert.Error(t, err)

	require.NoError(t, s.Clear(ctx, "run-y"))
	list, err := s.List(ctx, "run-y")
	require.NoError(t, err)
	assert.Len(t, list, 0)
}

type costDiagnostic struct {
	Cycles int64
	Bytes  int64
}

func TestStore_SaveAndLoadRoundTripsRegisteredPhaseType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, telemetry.RegisterTypeWithValue(costDiagnostic{}, "costDiagnostic"))

	rec := &telemetry.RunRecord{
		ID:        "rec-cost",
		RunID:     "run-cost",
		NodeName:  "resize_node",
		Phase:     costDiagnostic{Cycles: 1200, Bytes: 4096},
		Timestamp: time.Now().UTC(),
		Sequence:  0,
	}
	require.NoError(t, s.Save(ctx, rec))

	loaded, err := s.Load(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, costDiagnostic{Cycles: 1200, Bytes: 4096}, loaded.Phase)
}
