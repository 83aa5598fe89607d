// Package telemetry provides pluggable run-history sinks for the corevx
// graph engine's per-node performance counters and per-run cost tallies.
//
// The engine never persists graph state: a Context owns its
// reference table, a Graph owns its wired nodes, and neither survives the
// process that built them. What the engine does emit, when a Store is
// attached, is one RunRecord per node as that node finishes and one per
// completed run; the wavefront a node ran in is not recorded. Recording
// that into a store here is an append-only log of what happened, not a
// resumable checkpoint.
//
// # Available backends
//
//   - telemetry/memory: in-process map, no durability.
//   - telemetry/file: one gzip-compressed JSON file per record.
//   - telemetry/sqlite: embedded, single-process durability.
//   - telemetry/redis: shared store for multi-process deployments.
//   - telemetry/postgres: relational store for long-lived run history.
//
// All five implement the same Store interface, so a caller wires one in
// at startup and the graph engine's run loop is indifferent to which.
package telemetry
