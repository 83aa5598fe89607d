// Package event implements a bounded, drop-oldest multi-producer
// single-consumer event queue: a ring of typed events with optional
// per-(reference, type) app-value registrations, consumed by blocking
// wait (with an internal timeout) or by non-blocking poll.
package event
