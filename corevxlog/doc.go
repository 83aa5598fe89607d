// Package corevxlog provides a process-wide leveled log facility: one
// package-level Logger, replaceable with SetDefault. The other packages
// of this module do not call it; Graph.Verify reports failures as
// *graphengine.VerificationError values carrying the node name and
// parameter index, and logging them is up to the caller.
//
// # Log Levels
//
//   - LevelDebug: per-node/per-phase tracing during verification and execution
//   - LevelInfo: graph lifecycle events (verified, run started/completed)
//   - LevelWarn: recoverable conditions (NoMemory surfaced but execution continues)
//   - LevelError: verification/execution failures, with node name and parameter index
//   - LevelNone: disabled
//
// # Usage
//
//	logger := corevxlog.NewDefaultLogger(corevxlog.LevelInfo)
//	corevxlog.SetDefault(logger)
//
//	corevxlog.Errorf("node %s param %d: %v", nodeName, paramIndex, err)
//
// # golog integration
//
// For applications that already standardize on github.com/kataras/golog,
// wrap an existing *golog.Logger:
//
//	logger := corevxlog.NewGologLogger(golog.New())
//	corevxlog.SetDefault(logger)
package corevxlog
