package api

import (
	"context"                          // Request scoping
	"core_banking/internal/accounts"   // Account service
	"core_banking/internal/domain"     // Importing domain models
	"core_banking/internal/ledger"     // Ledger service
	"core_banking/internal/repository" // Listing filters
	"fmt"                              // Error wrapping
	"net/http"                         // HTTP status codes
	"strconv"                          // Query parsing
	"time"                             // Date filters

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Fixed-point money
)

// CreateTransactionRequest represents a new ledger movement.
// Amount accepts a JSON string or number; strings avoid float rounding on the client.
type CreateTransactionRequest struct {
	Type          string          `json:"transaction_type" binding:"required"` // One of the fixed transaction types
	Amount        decimal.Decimal `json:"amount"`                              // Strictly positive, two decimals at most
	Currency      string          `json:"currency"`                            // Optional ISO code
	FromAccountID *uint           `json:"from_account_id"`                     // Debited account, if any
	ToAccountID   *uint           `json:"to_account_id"`                       // Credited account, if any
	Description   string          `json:"description"`                         // Free text
	AutomatedBy   string          `json:"automated_by"`                        // Originating agent, if any
}

// AdvanceRequest moves a transaction to its next status
type AdvanceRequest struct {
	Status string `json:"status" binding:"required"` // Target status
	Note   string `json:"note"`                      // Stored on the audit event
}

// ReverseRequest undoes a completed transaction
type ReverseRequest struct {
	Reason      string `json:"reason"`       // Description of the compensating record
	AutomatedBy string `json:"automated_by"` // Originating agent, if any
}

// FraudRequest records an externally computed fraud assessment
type FraudRequest struct {
	Score   *decimal.Decimal `json:"fraud_score" binding:"required"` // In [0, 1]
	Flagged bool             `json:"is_flagged_for_review"`          // Hold for manual review
}

// CreateTransactionHandler records a pending transaction on accounts the caller holds
func CreateTransactionHandler(svc *accounts.Service, ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		txType, err := domain.ParseTransactionType(req.Type)
		if err != nil {
			respondError(c, err)
			return
		}
		parties := &domain.Transaction{FromAccountID: req.FromAccountID, ToAccountID: req.ToAccountID}
		if len(parties.AccountIDs()) > 0 {
			allowed, err := callerCanSee(c, svc, parties)
			if err != nil {
				respondError(c, err)
				return
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{"error": "Account not held by caller"})
				return
			}
		}
		t, err := ledgerSvc.Create(c.Request.Context(), domain.TransactionInput{
			Type:          txType,
			Amount:        req.Amount,
			Currency:      req.Currency,
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Description:   req.Description,
			AutomatedBy:   req.AutomatedBy,
		}, actorName(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// GetTransactionHandler returns a transaction by reference
func GetTransactionHandler(svc *accounts.Service, ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, cached, err := ledgerSvc.Get(c.Request.Context(), c.Param("reference"))
		if err != nil {
			respondError(c, err)
			return
		}
		if !visibleTransaction(c, svc, t) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"transaction": t, "cached": cached})
	}
}

// TransactionHistoryHandler returns the audit trail of a transaction
func TransactionHistoryHandler(svc *accounts.Service, ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		reference := c.Param("reference")
		t, _, err := ledgerSvc.Get(c.Request.Context(), reference)
		if err != nil {
			respondError(c, err)
			return
		}
		if !visibleTransaction(c, svc, t) {
			return
		}
		events, reversal, err := ledgerSvc.History(c.Request.Context(), reference)
		if err != nil {
			respondError(c, err)
			return
		}
		if events == nil {
			events = []domain.TransactionEvent{}
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "reversal": reversal})
	}
}

// AdvanceTransactionHandler moves a transaction along its lifecycle (operator)
func AdvanceTransactionHandler(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AdvanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		to, err := domain.ParseTransactionStatus(req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		t, err := ledgerSvc.Advance(c.Request.Context(), c.Param("reference"), to, actorName(c), req.Note)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// ReverseTransactionHandler reverses a completed transaction (operator)
func ReverseTransactionHandler(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReverseRequest
		if c.Request.ContentLength != 0 { // Body is optional
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
		}
		original, reversal, err := ledgerSvc.Reverse(c.Request.Context(), c.Param("reference"), req.Reason, req.AutomatedBy, actorName(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"original": original, "reversal": reversal})
	}
}

// AssessFraudHandler stores a fraud score and review flag (operator)
func AssessFraudHandler(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FraudRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		t, err := ledgerSvc.AssessFraud(c.Request.Context(), c.Param("reference"), *req.Score, req.Flagged, actorName(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// ListTransactionsHandler returns all transactions with optional filters (admin)
func ListTransactionsHandler(ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, err := transactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		if raw := c.Query("account_id"); raw != "" {
			v, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || v == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid account_id"})
				return
			}
			id := uint(v)
			f.AccountID = &id
		}
		page, cached, err := ledgerSvc.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pageResponse(page, cached))
	}
}

// transactionFilter reads type, status, from, to, page and page_size query parameters
func transactionFilter(c *gin.Context) (repository.TransactionFilter, error) {
	var f repository.TransactionFilter
	f.Page, f.PageSize = paging(c)
	if raw := c.Query("type"); raw != "" {
		t, err := domain.ParseTransactionType(raw)
		if err != nil {
			return f, err
		}
		f.Type = t
	}
	if raw := c.Query("status"); raw != "" {
		s, err := domain.ParseTransactionStatus(raw)
		if err != nil {
			return f, err
		}
		f.Status = s
	}
	var err error
	if f.From, _, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	to, dateOnly, err := queryTime(c, "to")
	if err != nil {
		return f, err
	}
	if dateOnly {
		// A plain date covers the whole day
		next := to.AddDate(0, 0, 1)
		f.Before = &next
	} else {
		f.To = to
	}
	return f, nil
}

// queryTime parses an RFC 3339 timestamp or a plain date, reporting which one matched
func queryTime(c *gin.Context, name string) (*time.Time, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, false, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, false, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, true, nil
	}
	return nil, false, fmt.Errorf("%w: %s=%q", errInvalidQuery, name, raw)
}

// visibleTransaction answers 404 unless the caller may see t
func visibleTransaction(c *gin.Context, svc *accounts.Service, t *domain.Transaction) bool {
	allowed, err := callerCanSee(c, svc, t)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !allowed {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrTransactionNotFound.Error()})
		return false
	}
	return true
}

// callerCanSee reports whether the caller is an admin or holds an account on either side of t
func callerCanSee(c *gin.Context, svc *accounts.Service, t *domain.Transaction) (bool, error) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		return false, nil
	}
	if isAdmin {
		return true, nil
	}
	return holdsParty(c.Request.Context(), svc, userID, t)
}

func holdsParty(ctx context.Context, svc *accounts.Service, userID uint, t *domain.Transaction) (bool, error) {
	held, err := svc.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, acc := range held {
		if t.Involves(acc.ID) {
			return true, nil
		}
	}
	return false, nil
}
