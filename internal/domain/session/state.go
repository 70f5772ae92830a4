package session

// State is the session lifecycle state reported by the remote
// provisioning service. Entitled sessions may become Active, Terminated or
// Completed; Active sessions may stay Active or reach a terminal state.
// Terminated and Completed are absorbing.
type State string

const (
	StateEntitled   State = "Entitled"
	StateActive     State = "Active"
	StateTerminated State = "Terminated"
	StateCompleted  State = "Completed"
)

// IsValid checks whether the state is one the engine knows
func (s State) IsValid() bool {
	switch s {
	case StateEntitled, StateActive, StateTerminated, StateCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether the state is absorbing for the reconciler
func (s State) IsTerminal() bool {
	return s == StateTerminated || s == StateCompleted
}

func (s State) String() string {
	return string(s)
}
