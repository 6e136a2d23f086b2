// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/flowmeter-logger/internal/frame"
)

// State is the controller state. Start and stop are idempotent.
type State uint8

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// CycleResult is the outcome of one poll cycle.
type CycleResult struct {
	At time.Time

	// Sample is valid only when Recorded is true.
	Sample frame.Sample

	// Recorded means the sample entered the in-memory series. It can be
	// true alongside a non-nil Err when only the durable append failed.
	Recorded bool

	Err error // non-nil means the cycle failed, fully or partially
}
