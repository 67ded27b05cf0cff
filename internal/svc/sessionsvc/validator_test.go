package sessionsvc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/svc/sessionsvc"
)

func TestValidateCredentials(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		creds domain.Credentials
		want  map[string]string
	}{
		{name: "valid", creds: domain.Credentials{Email: "a@x.com", Password: "secret1"}},
		{
			name:  "empty form",
			creds: domain.Credentials{},
			want:  map[string]string{"email": "Email is required", "password": "Password is required"},
		},
		{
			name:  "malformed email",
			creds: domain.Credentials{Email: "a@x", Password: "secret1"},
			want:  map[string]string{"email": "Please enter a valid email"},
		},
		{
			name:  "short password",
			creds: domain.Credentials{Email: "a@x.com", Password: "12345"},
			want:  map[string]string{"password": "Password must be at least 6 characters"},
		},
		{
			name:  "six multibyte runes is long enough",
			creds: domain.Credentials{Email: "a@x.com", Password: "äöüßéè"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := sessionsvc.ValidateCredentials(tt.creds)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, sessionsvc.ErrValidation)

			var verrs sessionsvc.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Len(t, verrs, len(tt.want))

			for field, msg := range tt.want {
				assert.Equal(t, msg, verrs.Message(field))
			}
		})
	}
}

func TestValidateRegistration(t *testing.T) {
	t.Parallel()

	err := sessionsvc.ValidateRegistration(domain.Registration{Email: "b@x.com", Password: "secret2"})

	var verrs sessionsvc.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, sessionsvc.ValidationErrors{{Field: "name", Message: "Name is required"}}, verrs)
	assert.Equal(t, "Name is required", err.Error())

	require.NoError(t, sessionsvc.ValidateRegistration(domain.Registration{
		Name:     "B",
		Email:    "b@x.com",
		Password: "secret2",
	}))
}
