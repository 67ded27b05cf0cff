// Package shell decides which screens are reachable for a session.
package shell

import "github.com/mkrupp/chatapp/internal/domain"

// Screen identifies one screen of the client.
type Screen string

const (
	ScreenLoading  Screen = "Loading"
	ScreenLogin    Screen = "Login"
	ScreenRegister Screen = "Register"
	ScreenHome     Screen = "Home"
)

// Screens returns the screen group for session. The first screen is the one
// shown on entering the group. Only the token and the busy flag matter.
func Screens(session domain.Session) []Screen {
	switch {
	case session.Busy:
		return []Screen{ScreenLoading}
	case session.Authenticated():
		return []Screen{ScreenHome}
	default:
		return []Screen{ScreenLogin, ScreenRegister}
	}
}

// Navigator tracks the current screen and follows group changes.
type Navigator struct {
	current Screen
	group   []Screen
}

// NewNavigator starts on the first screen for session.
func NewNavigator(session domain.Session) *Navigator {
	n := &Navigator{}
	n.Update(session)

	return n
}

// Current returns the screen being shown.
func (n *Navigator) Current() Screen {
	return n.current
}

// Update switches to the first screen of the new group when the group changed.
// It reports whether the current screen changed.
func (n *Navigator) Update(session domain.Session) bool {
	group := Screens(session)
	if sameGroup(group, n.group) {
		return false
	}

	n.group = group
	prev := n.current
	n.current = group[0]

	return prev != n.current
}

// Go switches to screen if it belongs to the current group.
func (n *Navigator) Go(screen Screen) bool {
	for _, s := range n.group {
		if s == screen {
			n.current = screen

			return true
		}
	}

	return false
}

func sameGroup(a, b []Screen) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
