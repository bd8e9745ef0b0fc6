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

func TestVerifyEmailMarksAccountVerified(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	userID := uuid.New()
	token := "verification-secret"
	record := &accounts.User{
		ID:                userID,
		Email:             "ada@example.com",
		VerificationToken: &token,
	}

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	users.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, token).
		Return(record, nil).Once()
	users.On("MarkVerifiedTx", mock.Anything, mock.Anything, userID).
		Return(nil).Once()

	handler := accounts.NewVerifyEmailHandler(repo).WithLogger(testLogger{})
	err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: token})

	require.NoError(t, err)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestVerifyEmailStoredSecretMismatch(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	userID := uuid.New()
	stored := "other-secret"
	record := &accounts.User{
		ID:                userID,
		Email:             "ada@example.com",
		VerificationToken: &stored,
	}

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// a row that matches the lookup but not the constant time re-check is
	// rejected like any other bad token
	users.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "verification-secret").
		Return(record, nil).Once()

	handler := accounts.NewVerifyEmailHandler(repo).WithLogger(testLogger{})
	err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: "verification-secret"})

	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)

	users.AssertNotCalled(t, "MarkVerifiedTx", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestVerifyEmailConsumedTokenFails(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}

	repo.On("Users").Return(users)
	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// MarkVerified nulls the token, so a replay finds nothing
	users.On("GetByVerificationTokenTx", mock.Anything, mock.Anything, "already-used").
		Return(nil, repository.NewRecordNotFound()).Once()

	handler := accounts.NewVerifyEmailHandler(repo).WithLogger(testLogger{})
	err := handler.Execute(context.Background(), accounts.VerifyEmailMessage{Token: "already-used"})

	require.Error(t, err)
	assert.ErrorIs(t, err, accounts.ErrInvalidToken)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
}
