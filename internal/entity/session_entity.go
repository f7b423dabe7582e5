package entity

type SessionStatus string

const (
	SessionUnauthenticated SessionStatus = "unauthenticated"
	SessionChecking        SessionStatus = "checking"
	SessionAuthenticated   SessionStatus = "authenticated"
	SessionError           SessionStatus = "error"
)

// SessionState is process-local and never persisted.
type SessionState struct {
	Status       SessionStatus `json:"status"`
	Profile      *UserProfile  `json:"profile,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	IsBusy       bool          `json:"is_busy"`
}

func (s SessionState) IsAuthenticated() bool {
	return s.Status == SessionAuthenticated
}

// Snapshot returns a copy that shares no memory with s.
func (s SessionState) Snapshot() SessionState {
	s.Profile = s.Profile.Clone()
	return s
}
