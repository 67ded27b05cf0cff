package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

var (
	// ErrInvalidCredentials is returned when no account matches the email/password combination.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrEmailAlreadyRegistered is returned when signing up with an email that already has an account.
	ErrEmailAlreadyRegistered = errors.New("email is already registered")
	// ErrTransport is returned when the account service could not be reached or answered with an error.
	ErrTransport = errors.New("account service error")
	// ErrInvalidUserID is returned when a user id is neither a JSON string nor a JSON number.
	ErrInvalidUserID = errors.New("invalid user id")
)

// UserID identifies a user record on the account service.
// The service may encode it as a JSON number or a JSON string; both decode to the
// same textual form, which is what the session token is derived from.
type UserID string

// String returns the textual form of the id.
func (id UserID) String() string {
	return string(id)
}

// UnmarshalJSON accepts both `7` and `"7"`.
func (id *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidUserID, err)
		}

		*id = UserID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUserID, data)
	}

	*id = UserID(n.String())

	return nil
}

// MarshalJSON encodes numeric ids as JSON numbers and everything else as strings.
func (id UserID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}

	//nolint:wrapcheck
	return json.Marshal(string(id))
}

// User is a user record as held by the account service.
type User struct {
	ID       UserID `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// UserFilter selects user records by exact field match. A nil field is not
// filtered on; a set field must match exactly, even when it is empty.
type UserFilter struct {
	Email    *string
	Password *string
}

// FilterByEmail selects the records with the given email.
func FilterByEmail(email string) UserFilter {
	return UserFilter{Email: &email}
}

// FilterByCredentials selects the records with the given email and password.
func FilterByCredentials(email, password string) UserFilter {
	return UserFilter{Email: &email, Password: &password}
}

// LogValue implements slog.LogValuer. The password value is left out.
func (f UserFilter) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2) //nolint:mnd

	if f.Email != nil {
		attrs = append(attrs, slog.String("email", *f.Email))
	}

	attrs = append(attrs, slog.Bool("by_password", f.Password != nil))

	return slog.GroupValue(attrs...)
}

// NewUser is the payload for creating a user record.
type NewUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials are the sign-in form values.
type Credentials struct {
	Email    string
	Password string
}

// Registration are the sign-up form values.
type Registration struct {
	Name     string
	Email    string
	Password string
}
