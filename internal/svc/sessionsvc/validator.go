package sessionsvc

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mkrupp/chatapp/internal/domain"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ErrValidation is returned when a form does not pass validation.
var ErrValidation = errors.New("validation failed")

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldError describes why one form field was rejected.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors lists rejected fields in form order.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Message)
	}

	return strings.Join(msgs, "; ")
}

// Is makes errors.Is(v, ErrValidation) hold.
func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation //nolint:errorlint
}

// Message returns the message for field, or "" if it passed.
func (v ValidationErrors) Message(field string) string {
	for _, fe := range v {
		if fe.Field == field {
			return fe.Message
		}
	}

	return ""
}

// ValidateCredentials checks the sign-in form. Returns nil or ValidationErrors.
func ValidateCredentials(creds domain.Credentials) error {
	var errs ValidationErrors

	errs = validateEmail(errs, creds.Email)
	errs = validatePassword(errs, creds.Password)

	if len(errs) == 0 {
		return nil
	}

	return errs
}

// ValidateRegistration checks the sign-up form. Returns nil or ValidationErrors.
func ValidateRegistration(reg domain.Registration) error {
	var errs ValidationErrors

	if reg.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "Name is required"})
	}

	errs = validateEmail(errs, reg.Email)
	errs = validatePassword(errs, reg.Password)

	if len(errs) == 0 {
		return nil
	}

	return errs
}

func validateEmail(errs ValidationErrors, email string) ValidationErrors {
	switch {
	case email == "":
		return append(errs, FieldError{Field: "email", Message: "Email is required"})
	case !emailPattern.MatchString(email):
		return append(errs, FieldError{Field: "email", Message: "Please enter a valid email"})
	default:
		return errs
	}
}

func validatePassword(errs ValidationErrors, password string) ValidationErrors {
	switch {
	case password == "":
		return append(errs, FieldError{Field: "password", Message: "Password is required"})
	case utf8.RuneCountInString(password) < MinPasswordLength:
		return append(errs, FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	default:
		return errs
	}
}
