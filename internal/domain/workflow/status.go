package workflow

import (
	"context"
	"fmt"
	"sort"
)

type contextKey string

const dueDateKey contextKey = "has_due_date"

// WithDueDate records on ctx whether the document being transitioned carries a due date.
// The MARK_OVERDUE guard reads it.
func WithDueDate(ctx context.Context, hasDueDate bool) context.Context {
	return context.WithValue(ctx, dueDateKey, hasDueDate)
}

func hasDueDate(ctx context.Context) bool {
	v, _ := ctx.Value(dueDateKey).(bool)
	return v
}

// targetTriggers maps every reachable status to the single trigger that reaches it.
var targetTriggers = map[State]Trigger{
	StateSent:      TriggerSend,
	StatePaid:      TriggerPay,
	StateOverdue:   TriggerMarkOverdue,
	StateCancelled: TriggerCancel,
}

var triggerTargets = map[Trigger]State{
	TriggerSend:        StateSent,
	TriggerPay:         StatePaid,
	TriggerMarkOverdue: StateOverdue,
	TriggerCancel:      StateCancelled,
}

var statusBuilder = newStatusBuilder()

// newStatusBuilder configures draft -> sent -> {paid | overdue | cancelled}.
func newStatusBuilder() StateMachineBuilder {
	b := NewBuilder()

	b.Configure(StateDraft).
		Permit(TriggerSend, StateSent).
		Permit(TriggerCancel, StateCancelled)

	b.Configure(StateSent).
		Permit(TriggerPay, StatePaid).
		PermitIf(TriggerMarkOverdue, StateOverdue, hasDueDate).
		Permit(TriggerCancel, StateCancelled)

	b.Configure(StateOverdue).
		Permit(TriggerPay, StatePaid).
		Permit(TriggerCancel, StateCancelled)

	return b
}

// NewStatusMachine builds a document status machine starting at the given state
func NewStatusMachine(initial State) StateMachine {
	return statusBuilder.Build(initial)
}

// Transition validates moving a document from one status to another.
// It returns the resulting state or an error wrapping ErrInvalidState,
// ErrInvalidTransition or ErrGuardFailed.
func Transition(ctx context.Context, from, to State) (State, error) {
	if !from.IsValid() {
		return from, fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	if !to.IsValid() {
		return from, fmt.Errorf("%w: %s", ErrInvalidState, to)
	}

	trigger, ok := targetTriggers[to]
	if !ok {
		return from, fmt.Errorf("%w: no trigger reaches %s", ErrInvalidTransition, to)
	}

	m := NewStatusMachine(from)
	if err := m.Fire(ctx, trigger); err != nil {
		return from, err
	}
	return m.State(), nil
}

// NextStates lists the states reachable in one step from the given state, sorted by name.
// Guards are not evaluated.
func NextStates(from State) []State {
	if !from.IsValid() {
		return []State{}
	}

	triggers := NewStatusMachine(from).PermittedTriggers()
	states := make([]State, 0, len(triggers))
	for _, t := range triggers {
		states = append(states, triggerTargets[t])
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })
	return states
}
