// Package config loads the runtime's configurable bounds from a YAML
// file. An embedded-style engine would hard-code these as fixed-size
// static arrays (`graph_queue[500000]`, `VX_INT_MAX_REF = 4096`); here
// they are configurable while keeping the same defaults.
package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// RuntimeConfig holds every configurable bound the engine consults at
// Context construction time.
type RuntimeConfig struct {
	// ReferenceTableCapacity bounds the Context's reference table.
	// Default mirrors the source's VX_INT_MAX_REF.
	ReferenceTableCapacity int `yaml:"reference_table_capacity"`

	// GraphQueueCapacity bounds the Context's graph queue. Default
	// mirrors the source's graph_queue[500000].
	GraphQueueCapacity int `yaml:"graph_queue_capacity"`

	// WorkerPoolSize bounds the process-wide worker pool used by the
	// wavefront executor. Default is host hardware concurrency.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// EventQueueCapacity bounds the event queue: a bounded ring (default
	// 128), drop-oldest under pressure.
	EventQueueCapacity int `yaml:"event_queue_capacity"`

	// EventQueueTimeout bounds a blocking event wait: blocking with an
	// internal cap, default 10s.
	EventQueueTimeout time.Duration `yaml:"event_queue_timeout"`
}

// Default returns the configuration the engine uses when none is
// supplied: the same numeric defaults as the source's static arrays.
func Default() *RuntimeConfig {
	return &RuntimeConfig{
		ReferenceTableCapacity: 4096,
		GraphQueueCapacity:     500000,
		WorkerPoolSize:         runtime.NumCPU(),
		EventQueueCapacity:     128,
		EventQueueTimeout:      10 * time.Second,
	}
}

// Load reads a YAML runtime configuration file, filling any field the
// file omits from Default().
func Load(path string) (*RuntimeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read runtime config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse runtime config: %w", err)
	}
	return cfg, nil
}
