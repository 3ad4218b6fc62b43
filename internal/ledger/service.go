package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"core_banking/internal/domain"
	"core_banking/internal/repository"
	"core_banking/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Page is one page of a transaction listing
type Page struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         int                  `json:"page"`         // Current page
	PageSize     int                  `json:"page_size"`    // Page size
	Total        int64                `json:"total"`        // Total matching transactions
	TotalPages   int                  `json:"total_pages"`  // Total pages
}

// Service owns the transaction lifecycle: intake, status changes, reversals and reads
type Service struct {
	transactions    *repository.TransactionRepository
	accounts        *repository.AccountRepository
	cache           *utils.Cache
	defaultCurrency string
	now             func() time.Time
	generation      atomic.Uint64 // Bumped on every invalidation
}

func NewService(
	transactions *repository.TransactionRepository,
	accounts *repository.AccountRepository,
	cache *utils.Cache,
	defaultCurrency string,
) *Service {
	if defaultCurrency == "" {
		defaultCurrency = domain.DefaultCurrency
	}
	return &Service{
		transactions:    transactions,
		accounts:        accounts,
		cache:           cache,
		defaultCurrency: defaultCurrency,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and records a new pending transaction
func (s *Service) Create(ctx context.Context, in domain.TransactionInput, actor string) (*domain.Transaction, error) {
	if strings.TrimSpace(in.Currency) == "" {
		in.Currency = s.defaultCurrency
	}
	t, err := domain.NewTransaction(in)
	if err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, t); err != nil {
		return nil, err
	}

	err = s.transactions.DB().Transaction(func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		if err := repo.Create(ctx, t); err != nil {
			return err
		}
		return repo.AddEvent(ctx, newEvent(t.ID, "", t.Status, actor, nil))
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"reference_id": t.ReferenceID,
			"type":         t.Type,
			"amount":       t.Amount.String(),
			"error":        err.Error(),
		}).Error("Transaction create failed")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reference_id": t.ReferenceID,
		"type":         t.Type,
		"amount":       t.Amount.String(),
		"currency":     t.Currency,
		"actor":        actor,
	}).Info("Transaction created")
	s.invalidate(ctx, t)
	return t, nil
}

// checkParties requires every referenced account to exist and be able to transact
func (s *Service) checkParties(ctx context.Context, t *domain.Transaction) error {
	ids := t.AccountIDs()
	found, err := s.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	for _, id := range ids {
		acc, ok := found[id]
		if !ok {
			return fmt.Errorf("%w: %d", domain.ErrAccountNotFound, id)
		}
		if !acc.CanTransact() {
			return fmt.Errorf("%w: %d is %s", domain.ErrAccountInactive, id, acc.Status)
		}
	}
	return nil
}

// Advance moves a transaction one step along its lifecycle.
// Reversal is refused here; it needs the compensating record written by Reverse.
func (s *Service) Advance(ctx context.Context, reference string, to domain.TransactionStatus, actor, note string) (*domain.Transaction, error) {
	if to == domain.StatusReversed {
		return nil, domain.ErrReversalRequired
	}
	t, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	// The conditional update below fails if another writer moved the row since this read
	from := t.Status
	err = s.transactions.DB().Transaction(func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		if err := t.Transition(to, s.now()); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, t, from); err != nil {
			return err
		}
		var details map[string]any
		if note != "" {
			details = map[string]any{"note": note}
		}
		return repo.AddEvent(ctx, newEvent(t.ID, from, to, actor, details))
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"reference_id": reference,
			"to":           to,
			"error":        err.Error(),
		}).Warn("Transaction status change rejected")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reference_id": t.ReferenceID,
		"status":       t.Status,
		"actor":        actor,
	}).Info("Transaction status changed")
	s.invalidate(ctx, t)
	return t, nil
}

// Reverse marks a completed transaction reversed and writes its compensating
// record in the same database transaction. Returns the updated original and the reversal.
func (s *Service) Reverse(ctx context.Context, reference, reason, automatedBy, actor string) (*domain.Transaction, *domain.Transaction, error) {
	var original, reversal *domain.Transaction
	err := s.transactions.DB().Transaction(func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		var err error
		if original, err = repo.GetByReference(ctx, reference); err != nil {
			return err
		}
		at := s.now()
		if reversal, err = domain.NewReversal(original, reason, automatedBy, at); err != nil {
			return err
		}
		from := original.Status
		if err := original.Transition(domain.StatusReversed, at); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, original, from); err != nil {
			return err
		}
		if err := repo.Create(ctx, reversal); err != nil {
			return err
		}
		if err := repo.AddEvent(ctx, newEvent(original.ID, from, domain.StatusReversed, actor, map[string]any{
			"reversal_reference": reversal.ReferenceID,
			"reason":             reason,
		})); err != nil {
			return err
		}
		return repo.AddEvent(ctx, newEvent(reversal.ID, "", reversal.Status, actor, map[string]any{
			"reverses": original.ReferenceID,
		}))
	})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"reference_id": reference,
			"error":        err.Error(),
		}).Warn("Transaction reversal rejected")
		return nil, nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reference_id":       original.ReferenceID,
		"reversal_reference": reversal.ReferenceID,
		"amount":             original.Amount.String(),
		"actor":              actor,
	}).Info("Transaction reversed")
	s.invalidate(ctx, original)
	s.invalidate(ctx, reversal)
	return original, reversal, nil
}

// AssessFraud records a caller-supplied fraud score and review flag
func (s *Service) AssessFraud(ctx context.Context, reference string, score decimal.Decimal, flagged bool, actor string) (*domain.Transaction, error) {
	if err := domain.ValidateFraudScore(score); err != nil {
		return nil, err
	}
	var t *domain.Transaction
	err := s.transactions.DB().Transaction(func(tx *gorm.DB) error {
		repo := s.transactions.WithTx(tx)
		var err error
		if t, err = repo.GetByReference(ctx, reference); err != nil {
			return err
		}
		if err := repo.UpdateReview(ctx, t.ID, score, flagged); err != nil {
			return err
		}
		t.FraudScore = &score
		t.FlaggedForReview = flagged
		return repo.AddEvent(ctx, newEvent(t.ID, t.Status, t.Status, actor, map[string]any{
			"fraud_score":           score.String(),
			"is_flagged_for_review": flagged,
		}))
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reference_id": t.ReferenceID,
		"fraud_score":  score.String(),
		"flagged":      flagged,
		"actor":        actor,
	}).Info("Fraud assessment recorded")
	s.invalidate(ctx, t)
	return t, nil
}

// Get returns a transaction by reference, reporting whether it came from cache
func (s *Service) Get(ctx context.Context, reference string) (*domain.Transaction, bool, error) {
	key := referenceKey(reference)
	var cached domain.Transaction
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, true, nil
	}
	gen := s.generation.Load()
	t, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	s.fill(ctx, key, t, gen)
	return t, false, nil
}

// List returns a page of transactions, reporting whether it came from cache
func (s *Service) List(ctx context.Context, f repository.TransactionFilter) (*Page, bool, error) {
	f.Normalize()
	key := listKey(f)
	var cached Page
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, true, nil
	}
	gen := s.generation.Load()
	txs, total, err := s.transactions.List(ctx, f)
	if err != nil {
		return nil, false, err
	}
	page := &Page{
		Transactions: txs,
		Page:         f.Page,
		PageSize:     f.PageSize,
		Total:        total,
		TotalPages:   (int(total) + f.PageSize - 1) / f.PageSize,
	}
	if page.Transactions == nil {
		page.Transactions = []domain.Transaction{}
	}
	s.fill(ctx, key, page, gen)
	return page, false, nil
}

// History returns the audit trail of a transaction and, for reversed rows, the compensating record
func (s *Service) History(ctx context.Context, reference string) ([]domain.TransactionEvent, *domain.Transaction, error) {
	t, err := s.transactions.GetByReference(ctx, reference)
	if err != nil {
		return nil, nil, err
	}
	events, err := s.transactions.Events(ctx, t.ID)
	if err != nil {
		return nil, nil, err
	}
	var reversal *domain.Transaction
	if t.Status == domain.StatusReversed {
		if reversal, err = s.transactions.ReversalOf(ctx, t.ID); err != nil {
			return nil, nil, err
		}
	}
	return events, reversal, nil
}

// invalidate drops every cached read that may include t
func (s *Service) invalidate(ctx context.Context, t *domain.Transaction) {
	s.generation.Add(1)
	keys := []string{referenceKey(t.ReferenceID)}
	prefixes := []string{"tx:list:"}
	for _, id := range t.AccountIDs() {
		prefixes = append(prefixes, accountPrefix(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logrus.WithField("error", err.Error()).Warn("Cache invalidation failed")
	}
	for _, p := range prefixes {
		if err := s.cache.DeletePrefix(ctx, p); err != nil {
			logrus.WithFields(logrus.Fields{"prefix": p, "error": err.Error()}).Warn("Cache invalidation failed")
		}
	}
}

// fill caches a value read at generation gen. A write that invalidated in the
// meantime may already have run its deletes, so the entry is dropped again.
// Other replicas can still race this way; their stale entries live at most one TTL.
func (s *Service) fill(ctx context.Context, key string, value any, gen uint64) {
	if s.generation.Load() != gen {
		return
	}
	_ = s.cache.Set(ctx, key, value)
	if s.generation.Load() != gen {
		_ = s.cache.Delete(ctx, key)
	}
}

func referenceKey(reference string) string {
	return "tx:ref:" + reference
}

func accountPrefix(accountID uint) string {
	return "tx:account:" + strconv.FormatUint(uint64(accountID), 10) + ":"
}

// listKey encodes every filter field. Account-scoped lists live under the
// account prefix so a write can drop all of that account's pages at once.
func listKey(f repository.TransactionFilter) string {
	prefix := "tx:list:"
	if f.AccountID != nil {
		prefix = accountPrefix(*f.AccountID)
	}
	return fmt.Sprintf("%stype=%s:status=%s:from=%s:to=%s:before=%s:page=%d:size=%d",
		prefix, f.Type, f.Status, keyTime(f.From), keyTime(f.To), keyTime(f.Before), f.Page, f.PageSize)
}

func keyTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func newEvent(transactionID uint, from, to domain.TransactionStatus, actor string, details map[string]any) *domain.TransactionEvent {
	e := &domain.TransactionEvent{
		TransactionID: transactionID,
		FromStatus:    from,
		ToStatus:      to,
		Actor:         actor,
	}
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			e.Details = datatypes.JSON(b)
		}
	}
	return e
}
