package repository

import (
	"context"
	"errors"
	"fmt"

	"core_banking/internal/domain"

	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// WithTx returns a repository bound to an open database transaction
func (r *AccountRepository) WithTx(tx *gorm.DB) *AccountRepository {
	return &AccountRepository{db: tx}
}

// Create inserts an account. A taken account number comes back as gorm.ErrDuplicatedKey.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetByID fetches a single account
func (r *AccountRepository) GetByID(ctx context.Context, id uint) (*domain.Account, error) {
	var a domain.Account
	err := r.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", domain.ErrAccountNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDs loads the accounts that exist among ids, keyed by id
func (r *AccountRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]domain.Account, error) {
	found := make(map[uint]domain.Account, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var accounts []domain.Account
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for _, a := range accounts {
		found[a.ID] = a
	}
	return found, nil
}

// ListByUser returns the accounts owned by a user
func (r *AccountRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Account, error) {
	var accounts []domain.Account
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&accounts).Error
	return accounts, err
}

// UpdateStatus changes an account's operational status
func (r *AccountRepository) UpdateStatus(ctx context.Context, id uint, status domain.AccountStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", domain.ErrAccountNotFound, id)
	}
	return nil
}
