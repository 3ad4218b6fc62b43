package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func validInput() TransactionInput {
	return TransactionInput{
		Type:          TypeTransfer,
		Amount:        decimal.RequireFromString("1500.50"),
		FromAccountID: ptr(1),
		ToAccountID:   ptr(2),
		Description:   "rent",
	}
}

func TestNewTransaction(t *testing.T) {
	before := time.Now().UTC()
	tx, err := NewTransaction(validInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, tx.Status)
	assert.Equal(t, DefaultCurrency, tx.Currency)
	assert.Nil(t, tx.ProcessedAt)
	assert.False(t, tx.FlaggedForReview)
	assert.Nil(t, tx.FraudScore)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1500.5")))
	assert.Equal(t, "1500.50", tx.Amount.StringFixed(2))
	assert.False(t, tx.CreatedAt.Before(before))

	id, err := uuid.Parse(tx.ReferenceID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())
	assert.Len(t, tx.ReferenceID, 36)
}

func TestNewTransactionReferenceIDsAreUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tx, err := NewTransaction(validInput())
		require.NoError(t, err)
		_, dup := seen[tx.ReferenceID]
		require.False(t, dup, "reference %s issued twice", tx.ReferenceID)
		seen[tx.ReferenceID] = struct{}{}
	}
}

func TestNewTransactionCurrency(t *testing.T) {
	in := validInput()
	in.Currency = " usd "
	tx, err := NewTransaction(in)
	require.NoError(t, err)
	assert.Equal(t, "USD", tx.Currency)

	in.Currency = "NAIRA"
	_, err = NewTransaction(in)
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestNewTransactionRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*TransactionInput)
		want   error
	}{
		{"zero amount", func(in *TransactionInput) { in.Amount = decimal.Zero }, ErrNonPositiveAmount},
		{"negative amount", func(in *TransactionInput) { in.Amount = decimal.RequireFromString("-5.00") }, ErrNonPositiveAmount},
		{"three decimals", func(in *TransactionInput) { in.Amount = decimal.RequireFromString("10.005") }, ErrAmountPrecision},
		{"too many integer digits", func(in *TransactionInput) { in.Amount = decimal.RequireFromString("10000000000000000") }, ErrAmountPrecision},
		{"no accounts", func(in *TransactionInput) { in.FromAccountID, in.ToAccountID = nil, nil }, ErrNoAccounts},
		{"same account", func(in *TransactionInput) { in.ToAccountID = ptr(1) }, ErrSameAccount},
		{"unknown type", func(in *TransactionInput) { in.Type = "airdrop" }, ErrInvalidType},
		{"long automated_by", func(in *TransactionInput) { in.AutomatedBy = strings.Repeat("a", MaxAutomatedByLen+1) }, ErrAutomatedByTooLong},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.modify(&in)
			tx, err := NewTransaction(in)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, tx)
		})
	}
}

func TestAutomatedByLengthCountsCharacters(t *testing.T) {
	in := validInput()
	in.AutomatedBy = strings.Repeat("é", MaxAutomatedByLen)
	tx, err := NewTransaction(in)
	require.NoError(t, err)
	assert.Equal(t, in.AutomatedBy, tx.AutomatedBy)

	in.AutomatedBy += "é"
	_, err = NewTransaction(in)
	assert.ErrorIs(t, err, ErrAutomatedByTooLong)
}

func TestNewTransactionSingleSided(t *testing.T) {
	deposit := validInput()
	deposit.Type, deposit.FromAccountID = TypeDeposit, nil
	tx, err := NewTransaction(deposit)
	require.NoError(t, err)
	assert.Equal(t, []uint{2}, tx.AccountIDs())

	withdrawal := validInput()
	withdrawal.Type, withdrawal.ToAccountID = TypeWithdrawal, nil
	tx, err = NewTransaction(withdrawal)
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, tx.AccountIDs())
}

func TestLargestAmountFits(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("9999999999999999.99")))
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))
	assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString("0.001")), ErrAmountPrecision)
}

func TestParseTransactionType(t *testing.T) {
	for _, known := range TransactionTypes {
		got, err := ParseTransactionType(string(known))
		require.NoError(t, err)
		assert.Equal(t, known, got)
	}
	got, err := ParseTransactionType(" AI_Adjustment ")
	require.NoError(t, err)
	assert.Equal(t, TypeAIAdjustment, got)

	_, err = ParseTransactionType("bonus")
	assert.ErrorIs(t, err, ErrInvalidType)
	assert.Len(t, TransactionTypes, 10)
}

func TestValidateFraudScore(t *testing.T) {
	assert.NoError(t, ValidateFraudScore(decimal.Zero))
	assert.NoError(t, ValidateFraudScore(decimal.NewFromInt(1)))
	assert.NoError(t, ValidateFraudScore(decimal.RequireFromString("0.8731")))
	assert.ErrorIs(t, ValidateFraudScore(decimal.RequireFromString("1.01")), ErrInvalidFraudScore)
	assert.ErrorIs(t, ValidateFraudScore(decimal.RequireFromString("-0.1")), ErrInvalidFraudScore)
	assert.ErrorIs(t, ValidateFraudScore(decimal.RequireFromString("0.12345")), ErrInvalidFraudScore)
}

func TestValidateProcessedAtMatchesStatus(t *testing.T) {
	tx, err := NewTransaction(validInput())
	require.NoError(t, err)

	now := time.Now()
	tx.ProcessedAt = &now
	assert.ErrorIs(t, tx.Validate(), ErrProcessedAtState)

	tx.Status, tx.ProcessedAt = StatusCompleted, nil
	assert.ErrorIs(t, tx.Validate(), ErrProcessedAtState)

	tx.ProcessedAt = &now
	assert.NoError(t, tx.Validate())
}

func TestInvolves(t *testing.T) {
	tx, err := NewTransaction(validInput())
	require.NoError(t, err)
	assert.True(t, tx.Involves(1))
	assert.True(t, tx.Involves(2))
	assert.False(t, tx.Involves(3))
}

func TestNewReversal(t *testing.T) {
	original, err := NewTransaction(validInput())
	require.NoError(t, err)
	original.ID = 7
	completedAt := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, original.Transition(StatusProcessing, completedAt))
	require.NoError(t, original.Transition(StatusCompleted, completedAt))

	at := completedAt.Add(time.Hour)
	r, err := NewReversal(original, "", "recon-agent", at)
	require.NoError(t, err)

	assert.NotEqual(t, original.ReferenceID, r.ReferenceID)
	assert.Equal(t, original.ToAccountID, r.FromAccountID)
	assert.Equal(t, original.FromAccountID, r.ToAccountID)
	assert.True(t, original.Amount.Equal(r.Amount))
	assert.Equal(t, original.Currency, r.Currency)
	assert.Equal(t, original.Type, r.Type)
	assert.Equal(t, StatusCompleted, r.Status)
	require.NotNil(t, r.ProcessedAt)
	assert.Equal(t, at, *r.ProcessedAt)
	require.NotNil(t, r.ReversalOfID)
	assert.Equal(t, uint(7), *r.ReversalOfID)
	assert.True(t, r.IsReversal())
	assert.Equal(t, "reversal of "+original.ReferenceID, r.Description)
	assert.Equal(t, "recon-agent", r.AutomatedBy)

	_, err = NewReversal(r, "", "", at)
	assert.ErrorIs(t, err, ErrReversalOfReversal)
}

func TestNewReversalRequiresCompleted(t *testing.T) {
	original, err := NewTransaction(validInput())
	require.NoError(t, err)
	_, err = NewReversal(original, "", "", time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
