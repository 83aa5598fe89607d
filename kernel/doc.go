// Package kernel defines the Kernel and Target contracts the graph
// engine calls through, without ever interpreting a kernel's own work.
// A Kernel is a typed callable with a per-parameter direction+type+state
// signature; a Target is a priority-ordered provider of kernels for a
// back-end. Concrete kernel bodies (image processing, tensor math, ...)
// are out of scope; this package only carries the shapes the engine
// needs to validate, dispatch, and execute them.
package kernel
