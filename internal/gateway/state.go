package gateway

// State is the adapter's position in the hosted-payment handshake.
type State string

const (
	StateSDKLoading    State = "SDK_LOADING"
	StateReady         State = "READY"
	StateIntentCreated State = "INTENT_CREATED"
	StateAuthorizing   State = "AUTHORIZING"
	StateVerified      State = "VERIFIED"
	StateFailed        State = "FAILED"
)

// IsTerminal reports whether the payment attempt has reached an exit.
func (s State) IsTerminal() bool {
	return s == StateVerified || s == StateFailed
}

// String representation (for logging)
func (s State) String() string {
	return string(s)
}

// transitions lists the legal next states for each state. A dismissed
// authorization re-enters Ready rather than Failed so the user can retry
// without re-entering anything.
var transitions = map[State][]State{
	StateSDKLoading:    {StateReady},
	StateReady:         {StateIntentCreated, StateFailed},
	StateIntentCreated: {StateAuthorizing, StateReady, StateFailed},
	StateAuthorizing:   {StateVerified, StateReady, StateFailed},
}

// CanTransitionTo reports whether moving from one state to another is legal.
func CanTransitionTo(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
