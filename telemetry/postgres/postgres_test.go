package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corevx-run/corevx/telemetry"
)

func TestStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStoreWithPool(mock, "run_records")

	rec := &telemetry.RunRecord{
		ID:        "rec-1",
		RunID:     "run-1",
		NodeName:  "node-a",
		Phase:     "executed",
		Timestamp: time.Now(),
		Sequence:  1,
		Metadata:  map[string]any{"target": "cpu"},
	}

	phaseJSON, _ := json.Marshal(rec.Phase)
	metadataJSON, _ := json.Marshal(rec.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_records")).
		WithArgs(rec.ID, rec.RunID, rec.NodeName, phaseJSON, metadataJSON, rec.Timestamp, rec.Sequence).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStoreWithPool(mock, "run_records")
	now := time.Now()

	rows := pgxmock.NewRows([]string{"id", "run_id", "node_name", "phase", "metadata", "timestamp", "sequence"}).
		AddRow("rec-1", "run-1", "node-a", []byte(`"executed"`), []byte(`{"target":"cpu"}`), now, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, node_name, phase, metadata, timestamp, sequence")).
		WithArgs("rec-1").
		WillReturnRows(rows)

	rec, err := store.Load(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "node-a", rec.NodeName)
	assert.Equal(t, "cpu", rec.Metadata["target"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStoreWithPool(mock, "run_records")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, node_name, phase, metadata, timestamp, sequence")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Load(context.Background(), "missing")
	assert.Error(t, err)
}

type costDiagnostic struct {
	Cycles int64
	Bytes  int64
}

func TestStore_SaveLoadRoundTripsRegisteredPhaseType(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	require.NoError(t, telemetry.RegisterTypeWithValue(costDiagnostic{}, "costDiagnostic"))

	store := NewStoreWithPool(mock, "run_records")
	now := time.Now()
	want := costDiagnostic{Cycles: 900, Bytes: 2048}

	phaseJSON, err := telemetry.GlobalTypeRegistry().MarshalPhase(want)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO run_records")).
		WithArgs("rec-cost", "run-cost", "node-a", phaseJSON, []byte("null"), now, 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), &telemetry.RunRecord{
		ID:        "rec-cost",
		RunID:     "run-cost",
		NodeName:  "node-a",
		Phase:     want,
		Timestamp: now,
		Sequence:  1,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())

	rows := pgxmock.NewRows([]string{"id", "run_id", "node_name", "phase", "metadata", "timestamp", "sequence"}).
		AddRow("rec-cost", "run-cost", "node-a", phaseJSON, []byte(nil), now, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, run_id, node_name, phase, metadata, timestamp, sequence")).
		WithArgs("rec-cost").
		WillReturnRows(rows)

	rec, err := store.Load(context.Background(), "rec-cost")
	require.NoError(t, err)
	assert.Equal(t, want, rec.Phase)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStoreWithPool(mock, "run_records")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM run_records WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Delete(context.Background(), "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
