package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestVerifyIdentity(t *testing.T) {
	hash, err := accounts.HashPassword("password12345")
	require.NoError(t, err)

	record := &accounts.User{
		ID:            uuid.New(),
		Email:         "ada@example.com",
		Name:          "Ada",
		PasswordHash:  hash,
		EmailVerified: true,
	}

	t.Run("valid credentials", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "ada@example.com").Return(record, nil).Once()

		provider := accounts.NewUserProvider(store).WithLogger(testLogger{})
		identity, err := provider.VerifyIdentity(context.Background(), "ada@example.com", "password12345")

		require.NoError(t, err)
		assert.Equal(t, record.ID.String(), identity.ID())
		assert.Equal(t, "ada@example.com", identity.Email())
		assert.Equal(t, "Ada", identity.Name())
		assert.True(t, identity.Verified())
		store.AssertExpectations(t)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "ada@example.com").Return(record, nil).Once()
		store.On("GetByEmail", mock.Anything, "ghost@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		provider := accounts.NewUserProvider(store).WithLogger(testLogger{})

		_, wrongPassword := provider.VerifyIdentity(context.Background(), "ada@example.com", "not-it")
		_, unknownEmail := provider.VerifyIdentity(context.Background(), "ghost@example.com", "not-it")

		require.Error(t, wrongPassword)
		require.Error(t, unknownEmail)
		assert.ErrorIs(t, wrongPassword, accounts.ErrInvalidCredentials)
		assert.ErrorIs(t, unknownEmail, accounts.ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
		store.AssertExpectations(t)
	})
}

func TestFindIdentityByIdentifier(t *testing.T) {
	record := &accounts.User{
		ID:    uuid.New(),
		Email: "ada@example.com",
		Name:  "Ada",
	}

	t.Run("by id", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, record.ID.String()).Return(record, nil).Once()

		provider := accounts.NewUserProvider(store)
		identity, err := provider.FindIdentityByIdentifier(context.Background(), record.ID.String())

		require.NoError(t, err)
		assert.Equal(t, record.ID.String(), identity.ID())
		store.AssertExpectations(t)
	})

	t.Run("by email", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByEmail", mock.Anything, "ada@example.com").Return(record, nil).Once()

		provider := accounts.NewUserProvider(store)
		identity, err := provider.FindIdentityByIdentifier(context.Background(), "ada@example.com")

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", identity.Email())
		store.AssertExpectations(t)
	})

	t.Run("missing account", func(t *testing.T) {
		store := &MockUserStore{}
		store.On("GetByID", mock.Anything, mock.Anything).
			Return(nil, repository.NewRecordNotFound()).Once()

		provider := accounts.NewUserProvider(store)
		_, err := provider.FindIdentityByIdentifier(context.Background(), uuid.NewString())

		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrIdentityNotFound)
		store.AssertExpectations(t)
	})
}
