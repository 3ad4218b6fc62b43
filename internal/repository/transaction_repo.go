package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"core_banking/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxPageSize caps list queries
const MaxPageSize = 100

// TransactionFilter narrows a transaction listing. Zero values mean "any".
type TransactionFilter struct {
	AccountID *uint
	Type      domain.TransactionType
	Status    domain.TransactionStatus
	From      *time.Time
	To        *time.Time // Inclusive
	Before    *time.Time // Exclusive, e.g. the day after a date-only "to"
	Page      int
	PageSize  int
}

// Normalize clamps paging to sane bounds
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > MaxPageSize {
		f.PageSize = 20
	}
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// DB exposes the connection for callers that open a database transaction
func (r *TransactionRepository) DB() *gorm.DB {
	return r.db
}

// WithTx returns a repository bound to an open database transaction
func (r *TransactionRepository) WithTx(tx *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: tx}
}

// Create inserts a new row. Rows are never deleted afterwards.
func (r *TransactionRepository) Create(ctx context.Context, t *domain.Transaction) error {
	err := r.db.WithContext(ctx).Omit("FromAccount", "ToAccount").Create(t).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, t.ReferenceID)
	}
	return err
}

// GetByReference fetches a transaction by its client-facing reference
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.WithContext(ctx).Where("reference_id = ?", reference).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, reference)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus persists t's status and processed_at, but only while the stored
// row still has status from. A lost race surfaces as domain.ErrStaleStatus.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, t *domain.Transaction, from domain.TransactionStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ? AND status = ?", t.ID, from).
		Updates(map[string]any{
			"status":       t.Status,
			"processed_at": t.ProcessedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s expected %s", domain.ErrStaleStatus, t.ReferenceID, from)
	}
	return nil
}

// UpdateReview stores a fraud assessment
func (r *TransactionRepository) UpdateReview(ctx context.Context, id uint, score decimal.Decimal, flagged bool) error {
	return r.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"fraud_score":           score,
			"is_flagged_for_review": flagged,
		}).Error
}

// List returns one page of transactions matching f, newest first, plus the total count
func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int64, error) {
	f.Normalize()
	query := r.db.WithContext(ctx).Model(&domain.Transaction{})
	if f.AccountID != nil {
		query = query.Where("from_account_id = ? OR to_account_id = ?", *f.AccountID, *f.AccountID)
	}
	if f.Type != "" {
		query = query.Where("transaction_type = ?", f.Type)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.From != nil {
		query = query.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("created_at <= ?", *f.To)
	}
	if f.Before != nil {
		query = query.Where("created_at < ?", *f.Before)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	var txs []domain.Transaction
	err := query.Order("created_at desc").Order("id desc").
		Offset((f.Page - 1) * f.PageSize).
		Limit(f.PageSize).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}

// ReversalOf returns the compensating record for the transaction with id, if any
func (r *TransactionRepository) ReversalOf(ctx context.Context, id uint) (*domain.Transaction, error) {
	var t domain.Transaction
	err := r.db.WithContext(ctx).Where("reversal_of_id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AddEvent appends an audit event
func (r *TransactionRepository) AddEvent(ctx context.Context, e *domain.TransactionEvent) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Events lists the audit trail of a transaction in insertion order
func (r *TransactionRepository) Events(ctx context.Context, transactionID uint) ([]domain.TransactionEvent, error) {
	var events []domain.TransactionEvent
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id asc").
		Find(&events).Error
	return events, err
}
