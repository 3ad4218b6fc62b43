package domain

import (
	"fmt"          // Error wrapping
	"regexp"       // Currency code validation
	"strings"      // String normalization
	"time"         // Timestamps
	"unicode/utf8" // Column widths are in characters

	"github.com/google/uuid"        // Reference ID generation
	"github.com/shopspring/decimal" // Fixed-point money
)

// TransactionType classifies what kind of movement a transaction records
type TransactionType string

const (
	TypeDeposit          TransactionType = "deposit"
	TypeWithdrawal       TransactionType = "withdrawal"
	TypeTransfer         TransactionType = "transfer"
	TypePayment          TransactionType = "payment"
	TypeFee              TransactionType = "fee"
	TypeInterest         TransactionType = "interest"
	TypeLoanDisbursement TransactionType = "loan_disbursement"
	TypeLoanRepayment    TransactionType = "loan_repayment"
	TypeRefund           TransactionType = "refund"
	TypeAIAdjustment     TransactionType = "ai_adjustment"
)

// TransactionTypes lists every accepted type in declaration order
var TransactionTypes = []TransactionType{
	TypeDeposit, TypeWithdrawal, TypeTransfer, TypePayment, TypeFee,
	TypeInterest, TypeLoanDisbursement, TypeLoanRepayment, TypeRefund, TypeAIAdjustment,
}

// Valid reports whether t is one of the fixed transaction types
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s))) // Accept any casing
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

const (
	DefaultCurrency   = "NGN" // Naira unless the deployment overrides it
	MaxAutomatedByLen = 50    // Width of the automated_by column
)

var (
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`) // ISO 4217 alpha code
	maxAmount       = decimal.New(1, 16)               // numeric(18,2) leaves 16 integer digits
	maxFraudScore   = decimal.NewFromInt(1)            // Fraud score upper bound
)

// Transaction is one row of the append-only ledger.
// Direction is carried by Type plus which account side is set, never by the sign of Amount.
type Transaction struct {
	ID               uint              `gorm:"primaryKey" json:"id"`
	ReferenceID      string            `gorm:"type:varchar(36);uniqueIndex;not null" json:"reference_id"`
	FromAccountID    *uint             `gorm:"index" json:"from_account_id"`
	FromAccount      *Account          `gorm:"foreignKey:FromAccountID;constraint:OnDelete:RESTRICT;" json:"-"`
	ToAccountID      *uint             `gorm:"index" json:"to_account_id"`
	ToAccount        *Account          `gorm:"foreignKey:ToAccountID;constraint:OnDelete:RESTRICT;" json:"-"`
	Type             TransactionType   `gorm:"column:transaction_type;type:varchar(32);not null;index" json:"transaction_type"`
	Amount           decimal.Decimal   `gorm:"type:numeric(18,2);not null" json:"amount"`
	Currency         string            `gorm:"type:varchar(3);not null" json:"currency"`
	Status           TransactionStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	Description      string            `gorm:"type:text" json:"description"`
	CreatedAt        time.Time         `gorm:"index" json:"created_at"`
	ProcessedAt      *time.Time        `json:"processed_at"`
	FraudScore       *decimal.Decimal  `gorm:"type:numeric(5,4)" json:"fraud_score"`
	FlaggedForReview bool              `gorm:"column:is_flagged_for_review;not null;default:false" json:"is_flagged_for_review"`
	AutomatedBy      string            `gorm:"type:varchar(50)" json:"automated_by,omitempty"`
	ReversalOfID     *uint             `gorm:"index" json:"reversal_of_id,omitempty"` // Set on compensating rows only
}

// TransactionInput carries the caller-supplied parts of a new transaction
type TransactionInput struct {
	Type          TransactionType
	Amount        decimal.Decimal
	Currency      string // Empty means DefaultCurrency
	FromAccountID *uint
	ToAccountID   *uint
	Description   string
	AutomatedBy   string
}

// NewTransaction builds a pending transaction with a fresh reference and the current time
func NewTransaction(in TransactionInput) (*Transaction, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency)) // Normalize currency
	if currency == "" {
		currency = DefaultCurrency // Fall back to the ledger default
	}
	t := &Transaction{
		ReferenceID:   NewReferenceID(),
		FromAccountID: in.FromAccountID,
		ToAccountID:   in.ToAccountID,
		Type:          in.Type,
		Amount:        in.Amount,
		Currency:      currency,
		Status:        StatusPending,
		Description:   strings.TrimSpace(in.Description),
		CreatedAt:     time.Now().UTC(),
		AutomatedBy:   strings.TrimSpace(in.AutomatedBy),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.Amount = t.Amount.Round(2) // Exact after validation, fixes the stored scale
	return t, nil
}

// NewReferenceID returns a random (version 4) UUID in canonical form
func NewReferenceID() string {
	return uuid.NewString()
}

// Validate checks every invariant a stored transaction must hold
func (t *Transaction) Validate() error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !currencyPattern.MatchString(t.Currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, t.Currency)
	}
	if t.FromAccountID == nil && t.ToAccountID == nil {
		return ErrNoAccounts
	}
	if t.FromAccountID != nil && t.ToAccountID != nil && *t.FromAccountID == *t.ToAccountID {
		return ErrSameAccount
	}
	if t.FraudScore != nil {
		if err := ValidateFraudScore(*t.FraudScore); err != nil {
			return err
		}
	}
	if utf8.RuneCountInString(t.AutomatedBy) > MaxAutomatedByLen {
		return ErrAutomatedByTooLong
	}
	if (t.ProcessedAt != nil) != t.Status.RequiresProcessedAt() {
		return fmt.Errorf("%w: status %s", ErrProcessedAtState, t.Status)
	}
	return nil
}

// ValidateAmount enforces a positive value that fits numeric(18,2) without rounding
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if amount.GreaterThanOrEqual(maxAmount) || !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: %s", ErrAmountPrecision, amount.String())
	}
	return nil
}

// ValidateFraudScore enforces the closed interval [0, 1] at four decimal places
func ValidateFraudScore(score decimal.Decimal) error {
	if score.IsNegative() || score.GreaterThan(maxFraudScore) || !score.Equal(score.Round(4)) {
		return fmt.Errorf("%w: %s", ErrInvalidFraudScore, score.String())
	}
	return nil
}

// IsReversal reports whether the row compensates an earlier transaction
func (t *Transaction) IsReversal() bool {
	return t.ReversalOfID != nil
}

// Involves reports whether accountID is on either side of the movement
func (t *Transaction) Involves(accountID uint) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// AccountIDs returns the non-nil party references
func (t *Transaction) AccountIDs() []uint {
	ids := make([]uint, 0, 2)
	if t.FromAccountID != nil {
		ids = append(ids, *t.FromAccountID)
	}
	if t.ToAccountID != nil {
		ids = append(ids, *t.ToAccountID)
	}
	return ids
}

// NewReversal builds the compensating record for a completed transaction.
// Parties are swapped; amount, currency and type are copied. The record is
// completed on creation since it only undoes an outcome already known.
func NewReversal(original *Transaction, description, automatedBy string, at time.Time) (*Transaction, error) {
	if original.IsReversal() {
		return nil, ErrReversalOfReversal
	}
	if !original.Status.CanTransitionTo(StatusReversed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, original.Status, StatusReversed)
	}
	if strings.TrimSpace(description) == "" {
		description = "reversal of " + original.ReferenceID
	}
	originalID := original.ID
	processedAt := at.UTC()
	r := &Transaction{
		ReferenceID:   NewReferenceID(),
		FromAccountID: original.ToAccountID,
		ToAccountID:   original.FromAccountID,
		Type:          original.Type,
		Amount:        original.Amount,
		Currency:      original.Currency,
		Status:        StatusCompleted,
		Description:   strings.TrimSpace(description),
		CreatedAt:     processedAt,
		ProcessedAt:   &processedAt,
		AutomatedBy:   strings.TrimSpace(automatedBy),
		ReversalOfID:  &originalID,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}
