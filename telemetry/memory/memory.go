// Package memory provides an in-process telemetry.Store backed by a
// mutex-guarded map: no setup, no durability across process restarts.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/corevx-run/corevx/telemetry"
)

// Store is a telemetry.Store backed by an in-memory map.
type Store struct {
	mu      sync.RWMutex
	records map[string]*telemetry.RunRecord
}

var _ telemetry.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*telemetry.RunRecord),
	}
}

func (s *Store) Save(_ context.Context, record *telemetry.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *Store) Load(_ context.Context, recordID string) (*telemetry.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordID]
	if !ok {
		return nil, fmt.Errorf("run record not found: %s", recordID)
	}
	cp := *r
	return &cp, nil
}

func (s *Store) List(_ context.Context, runID string) ([]*telemetry.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*telemetry.RunRecord
	for _, r := range s.records {
		if r.RunID == runID || r.Metadata["run_id"] == runID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *Store) Delete(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID)
	return nil
}

func (s *Store) Clear(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		if r.RunID == runID || r.Metadata["run_id"] == runID {
			delete(s.records, id)
		}
	}
	return nil
}
