// Package postgres provides a telemetry.Store backed by PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corevx-run/corevx/telemetry"
)

// Pool is the subset of *pgxpool.Pool this package depends on, so tests
// can substitute a mocked pool.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store is a telemetry.Store backed by PostgreSQL.
type Store struct {
	pool      Pool
	tableName string
}

var _ telemetry.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	ConnString string
	TableName  string // default "run_records"
}

// NewStore opens a connection pool and returns a Store.
func NewStore(ctx context.Context, opts Options) (*Store, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "run_records"
	}

	return &Store{pool: pool, tableName: tableName}, nil
}

// NewStoreWithPool builds a Store over an already-constructed pool,
// primarily so tests can inject a mocked pool.
func NewStoreWithPool(pool Pool, tableName string) *Store {
	if tableName == "" {
		tableName = "run_records"
	}
	return &Store{pool: pool, tableName: tableName}
}

// InitSchema creates the backing table and index if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			node_name TEXT NOT NULL,
			phase JSONB,
			metadata JSONB,
			timestamp TIMESTAMPTZ NOT NULL,
			sequence INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_run_id ON %s (run_id);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
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
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			node_name = EXCLUDED.node_name,
			phase = EXCLUDED.phase,
			metadata = EXCLUDED.metadata,
			timestamp = EXCLUDED.timestamp,
			sequence = EXCLUDED.sequence
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		record.ID, record.RunID, record.NodeName,
		phaseJSON, metadataJSON, record.Timestamp, record.Sequence,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, recordID string) (*telemetry.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, phase, metadata, timestamp, sequence
		FROM %s WHERE id = $1
	`, s.tableName)

	var rec telemetry.RunRecord
	var phaseJSON, metadataJSON []byte

	err := s.pool.QueryRow(ctx, query, recordID).Scan(
		&rec.ID, &rec.RunID, &rec.NodeName, &phaseJSON, &metadataJSON, &rec.Timestamp, &rec.Sequence,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("run record not found: %s", recordID)
		}
		return nil, fmt.Errorf("failed to load run record: %w", err)
	}

	if len(phaseJSON) > 0 {
		phase, err := telemetry.GlobalTypeRegistry().UnmarshalPhase(phaseJSON)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal phase: %w", err)
		}
		rec.Phase = phase
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}

func (s *Store) List(ctx context.Context, runID string) ([]*telemetry.RunRecord, error) {
	query := fmt.Sprintf(`
		SELECT id, run_id, node_name, phase, metadata, timestamp, sequence
		FROM %s WHERE run_id = $1 ORDER BY sequence ASC
	`, s.tableName)

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list run records: %w", err)
	}
	defer rows.Close()

	var records []*telemetry.RunRecord
	for rows.Next() {
		var rec telemetry.RunRecord
		var phaseJSON, metadataJSON []byte

		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.NodeName, &phaseJSON, &metadataJSON, &rec.Timestamp, &rec.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan run record row: %w", err)
		}
		if len(phaseJSON) > 0 {
			phase, err := telemetry.GlobalTypeRegistry().UnmarshalPhase(phaseJSON)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal phase: %w", err)
			}
			rec.Phase = phase
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run record rows: %w", err)
	}
	return records, nil
}

func (s *Store) Delete(ctx context.Context, recordID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, recordID); err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, runID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE run_id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to clear run records: %w", err)
	}
	return nil
}
