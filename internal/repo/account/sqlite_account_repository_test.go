package account_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrupp/chatapp/internal/domain"
	"github.com/mkrupp/chatapp/internal/repo/account"
)

func setupAccountRepo(t *testing.T) account.Repository {
	t.Helper()

	factory := account.SQLiteAccountRepositoryFactory(account.SQLiteAccountRepositoryConfig{
		DatabasePath: filepath.Join(t.TempDir(), "accounts.db"),
	})

	repo, err := factory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestSQLiteAccountRepository_CreateAssignsIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupAccountRepo(t)

	first, err := repo.CreateUser(ctx, "Ann", "ann@x.com", []byte("hash-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("1"), first.User.ID)
	assert.Equal(t, "Ann", first.User.Name)
	assert.Empty(t, first.User.Password)

	second, err := repo.CreateUser(ctx, "Bob", "bob@x.com", []byte("hash-2"))
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("2"), second.User.ID)
}

func TestSQLiteAccountRepository_FindUsersByEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupAccountRepo(t)

	_, err := repo.CreateUser(ctx, "Ann", "ann@x.com", []byte("hash-1"))
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "Bob", "bob@x.com", []byte("hash-2"))
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "Ann Again", "ann@x.com", []byte("hash-3"))
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, "Nobody", "", []byte("hash-4"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		email string
		want  []string
	}{
		{name: "no match", email: "nobody@x.com", want: []string{}},
		{name: "single match", email: "bob@x.com", want: []string{"Bob"}},
		{name: "duplicate emails in insertion order", email: "ann@x.com", want: []string{"Ann", "Ann Again"}},
		{name: "empty email matches only empty emails", email: "", want: []string{"Nobody"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			records, err := repo.FindUsersByEmail(ctx, tt.email)
			require.NoError(t, err)

			names := make([]string, 0, len(records))
			for _, rec := range records {
				names = append(names, rec.User.Name)
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSQLiteAccountRepository_ListUsers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupAccountRepo(t)

	records, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, name := range []string{"Ann", "Bob", "Ann Again"} {
		_, err := repo.CreateUser(ctx, name, "x@x.com", []byte("hash"))
		require.NoError(t, err)
	}

	records, err = repo.ListUsers(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(records))
	for _, rec := range records {
		names = append(names, rec.User.Name)
	}

	assert.Equal(t, []string{"Ann", "Bob", "Ann Again"}, names)
}

func TestSQLiteAccountRepository_KeepsPasswordHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := setupAccountRepo(t)

	_, err := repo.CreateUser(ctx, "Ann", "ann@x.com", []byte("hash-1"))
	require.NoError(t, err)

	records, err := repo.FindUsersByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []byte("hash-1"), records[0].PasswordHash)
	assert.NotZero(t, records[0].CreatedAt)
}
