package workflow

// State represents a document lifecycle state
type State string

const (
	StateIdle             State = "IDLE"
	StateProcessing       State = "PROCESSING"
	StateAwaitingApproval State = "AWAITING_APPROVAL"
	StateSuccess          State = "SUCCESS"
	StateError            State = "ERROR"
	StateRejected         State = "REJECTED"
)

var validStates = map[State]bool{
	StateIdle:             true,
	StateProcessing:       true,
	StateAwaitingApproval: true,
	StateSuccess:          true,
	StateError:            true,
	StateRejected:         true,
}

var terminalStates = map[State]bool{
	StateSuccess:  true,
	StateError:    true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
