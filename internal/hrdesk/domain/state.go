package domain

// Phase is the session lifecycle state.
type Phase string

const (
	PhaseUnauthenticated Phase = "unauthenticated"
	PhaseAuthenticating  Phase = "authenticating"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseRefreshingToken Phase = "refreshing_token"
)

func (p Phase) String() string { return string(p) }

// AuthState is a snapshot of the session. Values handed out by the session
// manager are copies and safe to keep.
type AuthState struct {
	IsAuthenticated bool
	User            *UserSession
	Employee        *EmployeeDetails
	IsLoading       bool
	Phase           Phase
}

// Clone returns a deep copy.
func (s AuthState) Clone() AuthState {
	s.User = s.User.Clone()
	s.Employee = s.Employee.Clone()
	return s
}
