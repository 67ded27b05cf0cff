package domain

import "errors"

// TokenKey is the token store slot holding the session token.
const TokenKey = "userToken"

// ErrBusy is returned when an authentication operation is already in flight.
var ErrBusy = errors.New("authentication in progress")

// SessionState is the state of the authentication state machine.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is a snapshot of the authentication state.
// Token is empty when no user is signed in.
type Session struct {
	Token string
	Busy  bool
}

// Authenticated reports whether the snapshot carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// DeriveToken builds the session token for a user record.
// The format is fixed; tokens persisted by earlier versions must keep working.
func DeriveToken(user User) string {
	return "token-" + user.ID.String() + "-" + user.Email
}
