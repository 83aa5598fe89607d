// Package node binds a kernel to concrete parameter references.
//
// A Node owns the parameter slots a kernel's signature describes, the
// target it has been affined to, and the per-run bookkeeping the graph
// engine needs during verification and execution: visited/executed
// flags, last status, and an optional completion callback. Node
// implements kernel.Binding so the kernel and target contracts never
// import this package.
package node
