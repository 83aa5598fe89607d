// Package file provides a telemetry.Store backed by gzip-compressed JSON
// files on disk, one per run record, grouped under a single directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corevx-run/corevx/telemetry"
	"github.com/klauspost/compress/gzip"
)

// Store persists run records as one gzip-compressed JSON file per record.
type Store struct {
	path string
}

var _ telemetry.Store = (*Store)(nil)

// NewStore creates (or reuses) a directory to hold run record files.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}
	return &Store{path: path}, nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.path, id+".json.gz")
}

func (s *Store) Save(_ context.Context, record *telemetry.RunRecord) error {
	f, err := os.OpenFile(s.recordPath(record.ID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open run record file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := json.NewEncoder(gz).Encode(record); err != nil {
		gz.Close()
		return fmt.Errorf("failed to encode run record: %w", err)
	}
	return gz.Close()
}

func (s *Store) readRecord(path string) (*telemetry.RunRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	var record telemetry.RunRecord
	if err := json.NewDecoder(gz).Decode(&record); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode run record: %w", err)
	}
	return &record, nil
}

func (s *Store) Load(_ context.Context, recordID string) (*telemetry.RunRecord, error) {
	record, err := s.readRecord(s.recordPath(recordID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run record not found: %s", recordID)
		}
		return nil, err
	}
	return record, nil
}

func (s *Store) List(_ context.Context, runID string) ([]*telemetry.RunRecord, error) {
	entries, err := os.ReadDir(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read telemetry directory: %w", err)
	}

	var out []*telemetry.RunRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json.gz") {
			continue
		}
		record, err := s.readRecord(filepath.Join(s.path, entry.Name()))
		if err != nil {
			continue
		}
		if record.RunID == runID || record.Metadata["run_id"] == runID {
			out = append(out, record)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *Store) Delete(_ context.Context, recordID string) error {
	err := os.Remove(s.recordPath(recordID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, runID string) error {
	records, err := s.List(ctx, runID)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := s.Delete(ctx, r.ID); err != nil {
			return err
		}
	}
	return nil
}
