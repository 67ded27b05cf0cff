package accountsvc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/repo/account"
)

// AccountConfig contains configuration parameters for the account service.
type AccountConfig struct {
	// PasswordCost is the bcrypt cost used when hashing new passwords
	PasswordCost int `env:"PASSWORD_COST" default:"10"`
}

// AccountService stores user records and answers record queries the way a
// plain REST collection does: filters select, nothing is rejected.
type AccountService struct {
	Config      AccountConfig
	AccountRepo account.Repository
	Log         logging.Logger
}

// NewAccountService creates a new AccountService with the given repository factory and configuration.
func NewAccountService(ctx context.Context, repoFactory account.RepositoryFactory, cfg AccountConfig) (*AccountService, error) {
	log := logging.GetLogger("svc.accountsvc.account_service")

	accountRepo, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new account repo: %w", err)
	}

	return &AccountService{
		Config:      cfg,
		AccountRepo: accountRepo,
		Log:         log,
	}, nil
}

// CreateUser stores a new user record with a hashed password and returns it.
// The returned record carries no password.
func (s *AccountService) CreateUser(ctx context.Context, user domain.NewUser) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "email", user.Email))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "create user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user created")
		}
	}()

	cost := s.Config.PasswordCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(user.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	rec, err := s.AccountRepo.CreateUser(ctx, user.Name, user.Email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return &rec.User, nil
}

// FindUsers returns the records matching every set field of filter, in
// creation order. The password filter matches against the stored hash.
func (s *AccountService) FindUsers(ctx context.Context, filter domain.UserFilter) (_ []domain.User, err error) {
	log := s.Log.With("filter", filter)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "find users failed", "error", err)
		} else {
			log.DebugContext(ctx, "users found")
		}
	}()

	var records []account.Record
	if filter.Email != nil {
		records, err = s.AccountRepo.FindUsersByEmail(ctx, *filter.Email)
	} else {
		records, err = s.AccountRepo.ListUsers(ctx)
	}

	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	users := make([]domain.User, 0, len(records))

	for _, rec := range records {
		if filter.Password != nil {
			err := bcrypt.CompareHashAndPassword(rec.PasswordHash, []byte(*filter.Password))
			if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
				continue
			} else if err != nil {
				return nil, fmt.Errorf("compare password: %w", err)
			}
		}

		users = append(users, rec.User)
	}

	return users, nil
}

// Close releases resources held by the service, such as database connections.
func (s *AccountService) Close() error {
	if err := s.AccountRepo.Close(); err != nil {
		return fmt.Errorf("close account repo: %w", err)
	}

	return nil
}
