package event

import (
	"time"

	"github.com/corevx-run/corevx/refs"
)

// Type is the closed set of event kinds.
type Type int

const (
	NodeCompleted Type = iota
	NodeError
	GraphCompleted
	GraphParameterConsumed
	User
)

// Event is a tagged record pushed onto a Queue. Timestamp is monotonic
// nanoseconds, matching the source's steady_clock-based timestamps.
type Event struct {
	Type      Type
	Timestamp time.Time
	AppValue  any
	Reference refs.Handle
	Payload   any
}
