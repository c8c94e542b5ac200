package service

import (
	"fmt"
	"strings"

	"github.com/meja-order/api/internal/enum"
)

// allowedTransitions is the full table state machine. Every status can move
// to the other two; self-transitions and unknown statuses are rejected.
var allowedTransitions = map[string][]string{
	enum.TableStatusAvailable: {enum.TableStatusOccupied, enum.TableStatusReserved},
	enum.TableStatusOccupied:  {enum.TableStatusAvailable, enum.TableStatusReserved},
	enum.TableStatusReserved:  {enum.TableStatusAvailable, enum.TableStatusOccupied},
}

// TransitionResult is the outcome of a state-machine check. Reason is set
// only when the transition is rejected.
type TransitionResult struct {
	IsValid bool
	Reason  string
}

// ValidateTransition checks whether a table may move from one status to
// another. Pure function, no I/O; callers run it before attempting any write.
func ValidateTransition(from, to string) TransitionResult {
	targets, ok := allowedTransitions[from]
	if !ok {
		return TransitionResult{
			Reason: fmt.Sprintf("unknown table status %q", from),
		}
	}
	for _, t := range targets {
		if t == to {
			return TransitionResult{IsValid: true}
		}
	}
	return TransitionResult{
		Reason: fmt.Sprintf("cannot transition table from %s to %s, valid targets: %s",
			from, to, strings.Join(targets, ", ")),
	}
}
