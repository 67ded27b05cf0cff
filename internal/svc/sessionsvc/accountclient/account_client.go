package accountclient

import (
	"context"

	"github.com/mkrupp/chatapp/internal/domain"
)

// AccountClient defines the interface of the remote account service.
type AccountClient interface {
	// FindUsers returns the user records matching every set field of filter.
	// No match is an empty slice, not an error.
	FindUsers(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)

	// CreateUser creates a user record and returns it with its assigned id.
	CreateUser(ctx context.Context, user domain.NewUser) (*domain.User, error)
}
