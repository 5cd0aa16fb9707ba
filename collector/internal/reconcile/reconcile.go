// Package reconcile locates an execution within its pipeline's history and
// finds the reference executions its metrics are measured against.
//
// A pipeline can flap before it settles, so comparing only the two newest
// executions would misattribute recovery and regression times. Reconcile walks
// the history newest-first from the current execution, captures the first
// status transition, and stops at the first older execution that shares the
// current status. Everything between the two is one transition.
package reconcile

import "github.com/pipelinedash/pipelinedash/pkg/types"

// ReferencePoints is the result of one Reconcile call. Nil fields are absent.
type ReferencePoints struct {
	// Current is the execution the event belongs to.
	Current *types.ExecutionSummary
	// PriorState is the nearest older execution whose status differs from
	// Current's: the transition boundary.
	PriorState *types.ExecutionSummary
	// PriorSuccess is the nearest older Succeeded execution. Only tracked
	// when Current succeeded.
	PriorSuccess *types.ExecutionSummary
	// PriorSuccessPlusOne is the execution immediately after PriorSuccess,
	// or Current itself when nothing failed in between. Only tracked when
	// Current succeeded.
	PriorSuccessPlusOne *types.ExecutionSummary
	// IsFinalState is true when an execution with Current's status was found
	// beyond the transition boundary, so the transition is settled.
	IsFinalState bool
}

// Reconcile scans history (newest first, terminal entries only) for the
// execution with the given id. history is not modified; the returned
// pointers refer to copies.
func Reconcile(history []types.ExecutionSummary, executionID string) ReferencePoints {
	var refs ReferencePoints

	for i := range history {
		e := history[i]

		if refs.Current == nil {
			if e.ID == executionID {
				refs.Current = &e
				if e.Status == types.StatusSucceeded {
					refs.PriorSuccessPlusOne = &e
				}
			}
			// Entries newer than the current execution are ignored.
			continue
		}

		cur := refs.Current
		if cur.Status == types.StatusSucceeded && refs.PriorSuccess == nil {
			if e.Status == types.StatusSucceeded {
				refs.PriorSuccess = &e
			} else {
				refs.PriorSuccessPlusOne = &e
			}
		}

		if e.Status != cur.Status {
			if refs.PriorState == nil {
				refs.PriorState = &e
			}
			continue
		}

		// Same status as Current: the run of differing executions is over.
		refs.IsFinalState = refs.PriorState != nil
		break
	}
	return refs
}
