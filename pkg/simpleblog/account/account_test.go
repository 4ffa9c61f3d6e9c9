package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/account"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	"golang.org/x/crypto/bcrypt"
)

func setupAccounts(t *testing.T) (*account.Service, *memory.Repository) {
	repo := memory.New()
	return account.New(repo, account.WithHashCost(bcrypt.MinCost)), repo
}

func TestSignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	svc, repo := setupAccounts(t)

	user, err := svc.SignUp(ctx, " alice ", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Name)
	assert.NotEqual(t, "secret", user.PasswordHash)

	stored, err := repo.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored.ID)

	signedIn, err := svc.SignIn(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, signedIn.ID)

	_, err = svc.SignIn(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)

	_, err = svc.SignIn(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, account.ErrInvalidCredentials)
}

func TestSignUpValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccounts(t)

	_, err := svc.SignUp(ctx, "  ", "secret")
	assert.ErrorIs(t, err, simpleblog.ErrValidation)

	_, err = svc.SignUp(ctx, "bob", "")
	assert.ErrorIs(t, err, simpleblog.ErrValidation)

	_, err = svc.SignUp(ctx, "bob", "secret")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "bob", "other")
	assert.ErrorIs(t, err, simpleblog.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupAccounts(t)

	alice, err := svc.SignUp(ctx, "alice", "old")
	require.NoError(t, err)
	bob, err := svc.SignUp(ctx, "bob", "bobpass")
	require.NoError(t, err)

	t.Run("access check", func(t *testing.T) {
		user, err := svc.CheckPasswordAccess(ctx, alice.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, user.ID)

		_, err = svc.CheckPasswordAccess(ctx, alice.ID, "ghost")
		assert.ErrorIs(t, err, simpleblog.ErrNotFound)

		_, err = svc.CheckPasswordAccess(ctx, bob.ID, "alice")
		assert.ErrorIs(t, err, simpleblog.ErrForbidden)
	})

	t.Run("empty password is rejected first", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, bob.ID, "ghost", ""), simpleblog.ErrValidation)
	})

	t.Run("other users cannot change it", func(t *testing.T) {
		assert.ErrorIs(t, svc.ChangePassword(ctx, bob.ID, "alice", "hacked"), simpleblog.ErrForbidden)

		_, err := svc.SignIn(ctx, "alice", "old")
		assert.NoError(t, err)
	})

	t.Run("owner changes it", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, alice.ID, "alice", "new"))

		_, err := svc.SignIn(ctx, "alice", "old")
		assert.ErrorIs(t, err, account.ErrInvalidCredentials)
		_, err = svc.SignIn(ctx, "alice", "new")
		assert.NoError(t, err)
	})
}
