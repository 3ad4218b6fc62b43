package accounts

import (
	"context"     // Request scoping
	"crypto/rand" // Account number generation
	"errors"      // Sentinel comparison
	"fmt"         // Error wrapping
	"math/big"    // Uniform random digits

	"core_banking/internal/domain"
	"core_banking/internal/repository"

	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // Duplicate key sentinel
)

// maxNumberAttempts bounds retries when a generated account number is taken
const maxNumberAttempts = 5

// Service opens and administers customer accounts
type Service struct {
	repo            *repository.AccountRepository
	defaultCurrency string
	newNumber       func() (string, error)
}

func NewService(repo *repository.AccountRepository, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}
	return &Service{repo: repo, defaultCurrency: defaultCurrency, newNumber: generateNumber}
}

// Open creates an active account for userID with a fresh account number
func (s *Service) Open(ctx context.Context, userID uint, accountType, currency string) (*domain.Account, error) {
	t, err := domain.ParseAccountType(accountType)
	if err != nil {
		return nil, err
	}
	if currency == "" {
		currency = s.defaultCurrency
	}
	code, err := domain.NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		number, err := s.newNumber()
		if err != nil {
			return nil, fmt.Errorf("generate account number: %w", err)
		}
		acc := &domain.Account{
			AccountNumber: number,
			UserID:        userID,
			Type:          t,
			Currency:      code,
			Status:        domain.AccountActive,
		}
		err = s.repo.Create(ctx, acc)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			logrus.WithField("attempt", attempt).Warn("Account number collision, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"account_id":     acc.ID,
			"account_number": acc.AccountNumber,
			"user_id":        userID,
			"type":           t,
		}).Info("Account opened")
		return acc, nil
	}
	return nil, fmt.Errorf("no free account number after %d attempts", maxNumberAttempts)
}

// Get returns one account
func (s *Service) Get(ctx context.Context, id uint) (*domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// ListByUser returns the accounts a user owns
func (s *Service) ListByUser(ctx context.Context, userID uint) ([]domain.Account, error) {
	return s.repo.ListByUser(ctx, userID)
}

// SetStatus changes an account's operational state
func (s *Service) SetStatus(ctx context.Context, id uint, status string) (*domain.Account, error) {
	st, err := domain.ParseAccountStatus(status)
	if err != nil {
		return nil, err
	}
	acc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if acc.Status == st {
		return acc, nil // Nothing to change
	}
	if err := s.repo.UpdateStatus(ctx, id, st); err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"account_id": id,
		"from":       acc.Status,
		"to":         st,
	}).Info("Account status changed")
	acc.Status = st
	return acc, nil
}

// generateNumber draws a uniformly random number of AccountNumberLength digits.
// The leading digit is never zero.
func generateNumber() (string, error) {
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(domain.AccountNumberLength-1), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}
	return n.Add(n, low).String(), nil
}
