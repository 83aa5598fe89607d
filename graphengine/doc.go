// Package graphengine implements the graph engine core: the
// verification pipeline (topological sort through cost tallies) and
// the wavefront executor. It is the CORE of the dataflow runtime;
// everything in refs, meta, kernel, node, and corevx exists to give
// this package something to verify and run.
package graphengine
