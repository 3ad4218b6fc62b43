package accounts

import (
	"context"
	"regexp"
	"testing"

	"core_banking/internal/db"
	"core_banking/internal/domain"
	"core_banking/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, uint) {
	t.Helper()
	database, err := db.Open(sqlite.Open("file::memory:"), false)
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	user := domain.User{Username: "amaka", Password: "x", Role: domain.RoleUser}
	require.NoError(t, database.Create(&user).Error)
	return NewService(repository.NewAccountRepository(database), "NGN"), user.ID
}

func TestOpen(t *testing.T) {
	svc, userID := newTestService(t)
	acc, err := svc.Open(context.Background(), userID, "savings", "")
	require.NoError(t, err)

	assert.NotZero(t, acc.ID)
	assert.Regexp(t, regexp.MustCompile(`^[1-9][0-9]{9}$`), acc.AccountNumber)
	assert.Equal(t, domain.AccountSavings, acc.Type)
	assert.Equal(t, "NGN", acc.Currency)
	assert.Equal(t, domain.AccountActive, acc.Status)
	assert.True(t, acc.CanTransact())

	usd, err := svc.Open(context.Background(), userID, "checking", "usd")
	require.NoError(t, err)
	assert.Equal(t, "USD", usd.Currency)

	list, err := svc.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestOpenRejectsBadInput(t *testing.T) {
	svc, userID := newTestService(t)
	_, err := svc.Open(context.Background(), userID, "crypto", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountType)

	_, err = svc.Open(context.Background(), userID, "savings", "NAIRA")
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestOpenRetriesOnNumberCollision(t *testing.T) {
	svc, userID := newTestService(t)
	numbers := []string{"1234567890", "1234567890", "1234567891"}
	calls := 0
	svc.newNumber = func() (string, error) {
		n := numbers[calls]
		calls++
		return n, nil
	}

	first, err := svc.Open(context.Background(), userID, "savings", "")
	require.NoError(t, err)
	assert.Equal(t, "1234567890", first.AccountNumber)

	second, err := svc.Open(context.Background(), userID, "savings", "")
	require.NoError(t, err)
	assert.Equal(t, "1234567891", second.AccountNumber)
	assert.Equal(t, 3, calls)
}

func TestOpenGivesUpAfterRepeatedCollisions(t *testing.T) {
	svc, userID := newTestService(t)
	svc.newNumber = func() (string, error) { return "1111111111", nil }

	_, err := svc.Open(context.Background(), userID, "savings", "")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), userID, "savings", "")
	assert.ErrorContains(t, err, "no free account number")
}

func TestSetStatus(t *testing.T) {
	svc, userID := newTestService(t)
	ctx := context.Background()
	acc, err := svc.Open(ctx, userID, "savings", "")
	require.NoError(t, err)

	got, err := svc.SetStatus(ctx, acc.ID, "Dormant")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountDormant, got.Status)
	assert.False(t, got.CanTransact())

	got, err = svc.SetStatus(ctx, acc.ID, "dormant")
	require.NoError(t, err, "setting the current status is a no-op")
	assert.Equal(t, domain.AccountDormant, got.Status)

	_, err = svc.SetStatus(ctx, acc.ID, "frozen")
	assert.ErrorIs(t, err, domain.ErrInvalidAccountStatus)

	_, err = svc.SetStatus(ctx, 999, "closed")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	stored, err := svc.Get(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AccountDormant, stored.Status)
}

func TestGenerateNumber(t *testing.T) {
	for i := 0; i < 200; i++ {
		n, err := generateNumber()
		require.NoError(t, err)
		assert.Len(t, n, domain.AccountNumberLength)
		assert.NotEqual(t, byte('0'), n[0])
	}
}
