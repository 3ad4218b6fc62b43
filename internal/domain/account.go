package domain

import (
	"fmt"     // Error wrapping
	"strings" // Input normalization
	"time"    // Timestamps
)

// AccountType is the product an account belongs to
type AccountType string

const (
	AccountSavings      AccountType = "savings"
	AccountChecking     AccountType = "checking"
	AccountFixedDeposit AccountType = "fixed_deposit"
	AccountCredit       AccountType = "credit"
	AccountLoan         AccountType = "loan_account"
)

// AccountStatus is the operational state of an account
type AccountStatus string

const (
	AccountPending   AccountStatus = "pending"
	AccountActive    AccountStatus = "active"
	AccountDormant   AccountStatus = "dormant"
	AccountSuspended AccountStatus = "suspended"
	AccountClosed    AccountStatus = "closed"
)

// AccountNumberLength is the width of a generated account number (NUBAN length)
const AccountNumberLength = 10

// Account Model
type Account struct {
	ID            uint          `gorm:"primaryKey" json:"id"`                                              // Primary key
	AccountNumber string        `gorm:"type:varchar(20);uniqueIndex;not null" json:"account_number"`       // Customer-facing number
	UserID        uint          `gorm:"index;not null" json:"user_id"`                                     // Owning user
	Type          AccountType   `gorm:"column:account_type;type:varchar(20);not null" json:"account_type"` // Product type
	Currency      string        `gorm:"type:varchar(3);not null" json:"currency"`                          // ISO currency code
	Status        AccountStatus `gorm:"type:varchar(16);not null;index" json:"status"`                     // Operational state
	CreatedAt     time.Time     `json:"created_at"`                                                        // Opened at
	UpdatedAt     time.Time     `json:"updated_at"`                                                        // Last change
}

// CanTransact reports whether the account may appear on a new transaction
func (a Account) CanTransact() bool {
	return a.Status == AccountActive
}

// ParseAccountType converts raw input into an AccountType
func ParseAccountType(s string) (AccountType, error) {
	t := AccountType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case AccountSavings, AccountChecking, AccountFixedDeposit, AccountCredit, AccountLoan:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountType, s)
}

// ParseAccountStatus converts raw input into an AccountStatus
func ParseAccountStatus(s string) (AccountStatus, error) {
	st := AccountStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case AccountPending, AccountActive, AccountDormant, AccountSuspended, AccountClosed:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAccountStatus, s)
}

// NormalizeCurrency upper-cases a currency code and checks its shape
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyPattern.MatchString(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}
