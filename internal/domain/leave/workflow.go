package leave

import "fmt"

// Event is something an actor does to a request.
type Event string

const (
	EventManagerApprove Event = "manager_approve"
	EventHRApprove      Event = "hr_approve"
	EventReject         Event = "reject"
	EventCancel         Event = "cancel"
)

// BalanceEffect is what a transition does to the ledger row.
type BalanceEffect int

const (
	// EffectNone leaves the balance untouched (manager sign-off in a
	// manager_then_hr chain).
	EffectNone BalanceEffect = iota
	// EffectConsume releases the pending reservation and consumes the
	// days (pending -= days; UseDays(days)).
	EffectConsume
	// EffectRelease releases the pending reservation only
	// (pending -= days).
	EffectRelease
	// EffectRestore gives consumed days back (Restore(days)), for
	// cancelling an approved request before it starts.
	EffectRestore
)

// Transition is the outcome of applying an Event to a request in a
// given Status under a Workflow mode.
type Transition struct {
	To     Status
	Effect BalanceEffect
}

// Transit decides the state machine. It returns ErrInvalidState when
// the event is not legal for the current status under the workflow
// mode. It knows nothing about who the actor is; permission checks
// happen before, persistence (with its own status-conditional guard)
// after.
func Transit(from Status, event Event, mode Workflow) (Transition, error) {
	switch event {
	case EventManagerApprove:
		if from != StatusPendingManager {
			return Transition{}, fmt.Errorf("manager approve from %s: %w", from, ErrInvalidState)
		}
		switch mode {
		case WorkflowManagerThenHR:
			return Transition{To: StatusPendingHR, Effect: EffectNone}, nil
		case WorkflowManagerOnly, WorkflowManagerOrHR:
			return Transition{To: StatusApproved, Effect: EffectConsume}, nil
		default:
			// hr_only: managers have no say.
			return Transition{}, fmt.Errorf("manager approve under %s: %w", mode, ErrInvalidState)
		}

	case EventHRApprove:
		if !from.IsPending() {
			return Transition{}, fmt.Errorf("hr approve from %s: %w", from, ErrInvalidState)
		}
		// HR can short-circuit a request still waiting on the manager.
		return Transition{To: StatusApproved, Effect: EffectConsume}, nil

	case EventReject:
		if !from.IsPending() {
			return Transition{}, fmt.Errorf("reject from %s: %w", from, ErrInvalidState)
		}
		return Transition{To: StatusRejected, Effect: EffectRelease}, nil

	case EventCancel:
		if from.IsPending() {
			return Transition{To: StatusCancelled, Effect: EffectRelease}, nil
		}
		if from == StatusApproved {
			// Caller must additionally check CanCancel(today): approved
			// leave that already started stays on the books.
			return Transition{To: StatusCancelled, Effect: EffectRestore}, nil
		}
		return Transition{}, fmt.Errorf("cancel from %s: %w", from, ErrInvalidState)
	}
	return Transition{}, fmt.Errorf("unknown event %q: %w", event, ErrInvalidState)
}
