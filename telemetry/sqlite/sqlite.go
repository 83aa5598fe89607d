// Package sqlite provides a telemetry.Store backed by an embedded SQLite
// database, suitable for a single process wanting a durable run-history
// log without standing up a server.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/corevx-run/corevx/telemetry"
)

// Store is a telemetry.Store backed by SQLite.
type Store struct {
	db        *sql.DB
	tableName string
}

var _ telemetry.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	Path      string
	TableName string // default "run_records"
}

// NewStore opens (creating if necessary) a SQLite-backed store.
func NewStore(opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "run_records"
	}

	s := &Store{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the backing table and index if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			phase TEXT NOT NULL,
			metadata TEXT,
			timestamp DATETIME NOT NULL,
			sequence INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(ctx context.Context, record *telemetry.RunRecord) error {
	phaseJSON, err := telemetry.GlobalTypeRegistry().MarshalPhase(record.Phase)
	if err != nil {
		return fmt.Errorf("failed to marshal phase: %w", err)
	}
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, run_id, node_name, phase, metadata, timestamp, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			node_name = excluded.node_name,
			phase = excluded.phase,
			metadata = excluded.metadata,
			timestamp = excluded.timestamp,
			sequence = excluded.sequence
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.RunID, record.NodeName,
		string(phaseJSON), string(metadataJSON), record.Timestamp, record.Sequence,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

func (s *Store) scanRow(row interface{ Scan(...any) error }) (*telemetry.RunRecord, error) {
	var rec telemetry.RunRecord
	var phaseJSON, metadataJSON string

	err := row.Scan(&rec.ID, &rec.RunID, &rec.NodeName, &phaseJSON, &metadataJSON, &rec.Timestamp, &rec.Sequence)
	if err != nil {
		return nil, err
	}

	phase, err := telemetry.GlobalTypeRegistry().UnmarshalPhase([]byte(phaseJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal phase: %w", err)
	}
	rec.Phase = phase
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func (s *Store) Load(ctx context.Context, recordID string) (*telemetry.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, phase, metadata, timestamp, sequence
		FROM %s WHERE id = ?
	`, s.tableName)

	rec, err := s.scanRow(s.db.QueryRowContext(ctx, query, recordID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("run record not found: %s", recordID)
		}
		return nil, fmt.Errorf("failed to load run record: %w", err)
	}
	return rec, nil
}

func (s *Store) List(ctx context.Context, runID string) ([]*telemetry.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, phase, metadata, timestamp, sequence
		FROM %s WHERE run_id = ? ORDER BY sequence ASC
	`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	defer rows.Close()

	var records []*telemetry.RunRecord
	for rows.Next() {
		rec, err := s.scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run record rows: %w", err)
	}
	return records, nil
}

func (s *Store) Delete(ctx context.Context, recordID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, recordID); err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear run records: %w", err)
	}
	return nil
}
