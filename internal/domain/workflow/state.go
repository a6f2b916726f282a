package workflow

import "github.com/kbdigital/doc-ledger/internal/domain/entity"

// State represents a document status in the state machine
type State string

const (
	StateDraft     State = State(entity.StatusDraft)
	StateSent      State = State(entity.StatusSent)
	StatePaid      State = State(entity.StatusPaid)
	StateOverdue   State = State(entity.StatusOverdue)
	StateCancelled State = State(entity.StatusCancelled)
)

var validStates = map[State]bool{
	StateDraft:     true,
	StateSent:      true,
	StatePaid:      true,
	StateOverdue:   true,
	StateCancelled: true,
}

var terminalStates = map[State]bool{
	StatePaid:      true,
	StateCancelled: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid document status
func (s State) IsValid() bool {
	return validStates[s]
}

// Status converts the state back to the entity status it mirrors
func (s State) Status() entity.Status {
	return entity.Status(s)
}
