package workflow

// State represents a dispatch order state in its response lifecycle
type State string

const (
	StatePendingApproval State = "pending_approval"
	StateApproved        State = "approved"
	StateRejected        State = "rejected"
	StateDispatched      State = "dispatched"
	StateInProgress      State = "in_progress"
	StateCompleted       State = "completed"
	StateCanceled        State = "canceled"
)

var validStates = map[State]bool{
	StatePendingApproval: true,
	StateApproved:        true,
	StateRejected:        true,
	StateDispatched:      true,
	StateInProgress:      true,
	StateCompleted:       true,
	StateCanceled:        true,
}

var terminalStates = map[State]bool{
	StateRejected:  true,
	StateCompleted: true,
	StateCanceled:  true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid dispatch order state
func (s State) IsValid() bool {
	return validStates[s]
}
