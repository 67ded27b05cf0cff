package accountsvc_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/infra/logging"
	"github.com/mkrupp/chatapp/internal/repo/account"
	"github.com/mkrupp/chatapp/internal/svc/accountsvc"
)

var ErrRepoError = errors.New("repository error")

// mockAccountRepository implements account.Repository for testing.
type mockAccountRepository struct {
	records []account.Record
	err     error
	m       sync.Mutex
}

func (m *mockAccountRepository) CreateUser(
	_ context.Context,
	name, email string,
	passwordHash []byte,
) (*account.Record, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	rec := account.Record{
		User: domain.User{
			ID:    domain.UserID(string(rune('0' + len(m.records) + 1))),
			Name:  name,
			Email: email,
		},
		PasswordHash: passwordHash,
	}
	m.records = append(m.records, rec)

	return &rec, nil
}

func (m *mockAccountRepository) FindUsersByEmail(_ context.Context, email string) ([]account.Record, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	found := []account.Record{}

	for _, rec := range m.records {
		if rec.User.Email == email {
			found = append(found, rec)
		}
	}

	return found, nil
}

func (m *mockAccountRepository) ListUsers(context.Context) ([]account.Record, error) {
	m.m.Lock()
	defer m.m.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	return append([]account.Record{}, m.records...), nil
}

func (m *mockAccountRepository) Close() error {
	return m.err
}

func setupTestService(t *testing.T) (*accountsvc.AccountService, *mockAccountRepository) {
	t.Helper()

	repo := &mockAccountRepository{}

	svc := &accountsvc.AccountService{
		Config:      accountsvc.AccountConfig{PasswordCost: bcrypt.MinCost},
		AccountRepo: repo,
		Log:         logging.NewNopLogger(),
	}

	return svc, repo
}

func TestAccountService_CreateUser(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)

	user, err := svc.CreateUser(context.Background(), domain.NewUser{
		Name:     "Ann",
		Email:    "ann@x.com",
		Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, &domain.User{ID: "1", Name: "Ann", Email: "ann@x.com"}, user)

	require.Len(t, repo.records, 1)
	assert.NotEqual(t, []byte("secret1"), repo.records[0].PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword(repo.records[0].PasswordHash, []byte("secret1")))
}

func TestAccountService_CreateUserRepoError(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	repo.err = ErrRepoError

	_, err := svc.CreateUser(context.Background(), domain.NewUser{Email: "ann@x.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrRepoError)
}

func TestAccountService_FindUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := setupTestService(t)

	for _, u := range []domain.NewUser{
		{Name: "Ann", Email: "ann@x.com", Password: "secret1"},
		{Name: "Bob", Email: "bob@x.com", Password: "secret2"},
		{Name: "Ann Two", Email: "ann@x.com", Password: "secret3"},
	} {
		_, err := svc.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	secret2, empty := "secret2", ""

	tests := []struct {
		name   string
		filter domain.UserFilter
		want   []string
	}{
		{name: "no filter", filter: domain.UserFilter{}, want: []string{"Ann", "Bob", "Ann Two"}},
		{name: "email", filter: domain.FilterByEmail("ann@x.com"), want: []string{"Ann", "Ann Two"}},
		{name: "email and password", filter: domain.FilterByCredentials("ann@x.com", "secret3"), want: []string{"Ann Two"}},
		{name: "password only", filter: domain.UserFilter{Password: &secret2}, want: []string{"Bob"}},
		{name: "wrong password", filter: domain.FilterByCredentials("bob@x.com", "secret1"), want: []string{}},
		{name: "unknown email", filter: domain.FilterByEmail("zed@x.com"), want: []string{}},
		{name: "empty password", filter: domain.FilterByCredentials("ann@x.com", ""), want: []string{}},
		{name: "empty email", filter: domain.FilterByEmail(""), want: []string{}},
		{name: "empty email and password", filter: domain.FilterByCredentials("", ""), want: []string{}},
		{name: "empty password only", filter: domain.UserFilter{Password: &empty}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users, err := svc.FindUsers(ctx, tt.filter)
			require.NoError(t, err)

			names := make([]string, 0, len(users))
			for _, u := range users {
				names = append(names, u.Name)
				assert.Empty(t, u.Password)
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestAccountService_FindUsersRepoError(t *testing.T) {
	t.Parallel()

	svc, repo := setupTestService(t)
	repo.err = ErrRepoError

	_, err := svc.FindUsers(context.Background(), domain.FilterByEmail("ann@x.com"))
	require.ErrorIs(t, err, ErrRepoError)
	require.ErrorIs(t, svc.Close(), ErrRepoError)
}
