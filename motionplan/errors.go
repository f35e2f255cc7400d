package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

// errNoPlannerOptions is returned when a planner is constructed with a nil options struct.
var errNoPlannerOptions = errors.New("planner options cannot be nil")

// ConfigurationError indicates a malformed request that was rejected before
// any search started: missing goals, joint count mismatches, out-of-limit
// configurations. The request should be fixed, not retried.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid motion plan request: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// InvalidStateError indicates that the start or goal state itself failed
// collision or bounds checking, surfaced before any expansions occur. It is
// distinct from SearchExhaustedError: no amount of additional search time
// will help.
type InvalidStateError struct {
	// State is "start" or "goal".
	State string
	// Reason describes the failure, e.g. which sphere collided or left the workspace.
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s state is invalid: %s", e.State, e.Reason)
}

// SearchExhaustedError indicates the search terminated without reaching the
// goal. Expansions lets callers distinguish an exhausted-but-fast search from
// one that ran out of time.
type SearchExhaustedError struct {
	// Expansions performed before the search ended.
	Expansions int
	// TimedOut is true when the time budget expired before the open list emptied.
	TimedOut bool
}

func (e *SearchExhaustedError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("no path found within the time budget after %d expansions", e.Expansions)
	}
	return fmt.Sprintf("no path found, open list exhausted after %d expansions", e.Expansions)
}
