// Package corevx is the process-wide root of the dataflow runtime: a
// Context owns the reference table, the loaded target table, the
// user-struct table, the accessor and memory-map tables, the worker
// pool, and a bounded graph queue, plus an optional event queue.
//
// Every other package in this module (meta, kernel, node, graphengine,
// pipeline, event) is built to be used by way of a Context; nothing
// outside this package constructs global state.
package corevx
