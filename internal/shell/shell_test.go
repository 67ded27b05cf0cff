package shell_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/shell"
)

func TestScreens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session domain.Session
		want    []shell.Screen
	}{
		{name: "signed out", session: domain.Session{}, want: []shell.Screen{shell.ScreenLogin, shell.ScreenRegister}},
		{name: "signed in", session: domain.Session{Token: "token-7-a@x.com"}, want: []shell.Screen{shell.ScreenHome}},
		{name: "busy signed out", session: domain.Session{Busy: true}, want: []shell.Screen{shell.ScreenLoading}},
		{
			name:    "busy signed in",
			session: domain.Session{Token: "token-7-a@x.com", Busy: true},
			want:    []shell.Screen{shell.ScreenLoading},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, shell.Screens(tt.session))
		})
	}
}

func TestNavigator(t *testing.T) {
	t.Parallel()

	nav := shell.NewNavigator(domain.Session{})
	assert.Equal(t, shell.ScreenLogin, nav.Current())

	assert.True(t, nav.Go(shell.ScreenRegister))
	assert.Equal(t, shell.ScreenRegister, nav.Current())
	assert.False(t, nav.Go(shell.ScreenHome))

	// same group keeps the screen
	assert.False(t, nav.Update(domain.Session{}))
	assert.Equal(t, shell.ScreenRegister, nav.Current())

	assert.True(t, nav.Update(domain.Session{Busy: true}))
	assert.Equal(t, shell.ScreenLoading, nav.Current())

	assert.True(t, nav.Update(domain.Session{Token: "token-9-b@x.com"}))
	assert.Equal(t, shell.ScreenHome, nav.Current())

	nav.Update(domain.Session{Token: "token-9-b@x.com", Busy: true})
	nav.Update(domain.Session{})
	assert.Equal(t, shell.ScreenLogin, nav.Current())
}
