// Package pipeline implements multi-buffered graph-parameter scheduling
// and trigger-driven streaming on top of a verified graphengine.Graph.
// Neither concern touches verification or execution semantics: a
// Scheduler only rewires which reference a graph parameter is bound to
// before calling Graph.Process, and a StreamController only loops that
// same Process call in a background goroutine.
package pipeline
