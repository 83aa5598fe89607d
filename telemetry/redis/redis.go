// Package redis provides a telemetry.Store backed by Redis, for
// multi-process deployments that want a shared run-history log.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/corevx-run/corevx/telemetry"
)

// Store is a telemetry.Store backed by Redis.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ telemetry.Store = (*Store)(nil)

// Options configures a Store.
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key prefix, default "corevx:"
	TTL      time.Duration // expiration for records, default 0 (no expiration)
}

// NewStore creates a Redis-backed store.
func NewStore(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "corevx:"
	}

	return &Store{client: client, prefix: prefix, ttl: opts.TTL}
}

func (s *Store) recordKey(id string) string {
	return fmt.Sprintf("%srecord:%s", s.prefix, id)
}

func (s *Store) runKey(runID string) string {
	return fmt.Sprintf("%srun:%s:records", s.prefix, runID)
}

func (s *Store) Save(ctx context.Context, record *telemetry.RunRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	key := s.recordKey(record.ID)
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.ttl)

	if record.RunID != "" {
		runKey := s.runKey(record.RunID)
		pipe.SAdd(ctx, runKey, record.ID)
		if s.ttl > 0 {
			pipe.Expire(ctx, runKey, s.ttl)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save run record to redis: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, recordID string) (*telemetry.RunRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(recordID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("run record not found: %s", recordID)
		}
		return nil, fmt.Errorf("failed to load run record from redis: %w", err)
	}

	var record telemetry.RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}
	return &record, nil
}

func (s *Store) List(ctx context.Context, runID string) ([]*telemetry.RunRecord, error) {
	ids, err := s.client.SMembers(ctx, s.runKey(runID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list run records for %s: %w", runID, err)
	}
	if len(ids) == 0 {
		return []*telemetry.RunRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}

	results, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run records: %w", err)
	}

	var records []*telemetry.RunRecord
	for _, result := range results {
		if result == nil {
			continue
		}
		strData, ok := result.(string)
		if !ok {
			continue
		}
		var record telemetry.RunRecord
		if err := json.Unmarshal([]byte(strData), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Sequence < records[j].Sequence })
	return records, nil
}

func (s *Store) Delete(ctx context.Context, recordID string) error {
	record, err := s.Load(ctx, recordID)
	if err != nil {
		return err
	}

	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.recordKey(recordID))
	if record.RunID != "" {
		pipe.SRem(ctx, s.runKey(record.RunID), recordID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete run record: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, runID string) error {
	runKey := s.runKey(runID)
	ids, err := s.client.SMembers(ctx, runKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get run records for clearing: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.recordKey(id))
	}
	pipe.Del(ctx, runKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear run records: %w", err)
	}
	return nil
}
