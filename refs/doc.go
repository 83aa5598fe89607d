// Package refs implements the reference substrate every corevx runtime
// object is built on: a typed, dual-counted (external/internal) header,
// validated by a generation-checked handle rather than a magic-number
// tag word.
package refs
