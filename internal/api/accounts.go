package api

import (
	"core_banking/internal/accounts" // Account service
	"core_banking/internal/domain"   // Importing domain models
	"core_banking/internal/ledger"   // Ledger service
	"net/http"                       // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// OpenAccountRequest represents a request to open an account
type OpenAccountRequest struct {
	Type     string `json:"account_type" binding:"required"` // savings, checking, fixed_deposit, credit or loan_account
	Currency string `json:"currency"`                        // Optional, defaults to the ledger currency
}

// OpenAccountHandler opens an account for the authenticated user
func OpenAccountHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := caller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req OpenAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		acc, err := svc.Open(c.Request.Context(), userID, req.Type, req.Currency)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, acc)
	}
}

// ListAccountsHandler lists the authenticated user's accounts
func ListAccountsHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, _, ok := caller(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		list, err := svc.ListByUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		if list == nil {
			list = []domain.Account{}
		}
		c.JSON(http.StatusOK, gin.H{"accounts": list})
	}
}

// GetAccountHandler returns one account the caller may see
func GetAccountHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := visibleAccount(c, svc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// AccountTransactionsHandler lists transactions on either side of an account
func AccountTransactionsHandler(svc *accounts.Service, ledgerSvc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		acc, ok := visibleAccount(c, svc)
		if !ok {
			return
		}
		f, err := transactionFilter(c)
		if err != nil {
			respondError(c, err)
			return
		}
		f.AccountID = &acc.ID
		page, cached, err := ledgerSvc.List(c.Request.Context(), f)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, pageResponse(page, cached))
	}
}

// visibleAccount loads the :id account and checks the caller owns it or is an admin.
// Other users' accounts answer 404 so their existence is not disclosed.
func visibleAccount(c *gin.Context, svc *accounts.Service) (*domain.Account, bool) {
	userID, isAdmin, ok := caller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	id, ok := idParam(c, "id")
	if !ok {
		return nil, false
	}
	acc, err := svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if !isAdmin && acc.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrAccountNotFound.Error()})
		return nil, false
	}
	return acc, true
}

// SetAccountStatusRequest represents an admin status change
type SetAccountStatusRequest struct {
	Status string `json:"status" binding:"required"` // pending, active, dormant, suspended or closed
}

// SetAccountStatusHandler changes an account's operational state (admin)
func SetAccountStatusHandler(svc *accounts.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req SetAccountStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		acc, err := svc.SetStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}

// pageResponse flattens a ledger page the way list endpoints return it
func pageResponse(p *ledger.Page, cached bool) gin.H {
	return gin.H{
		"transactions": p.Transactions, // List of transactions
		"page":         p.Page,         // Current page
		"page_size":    p.PageSize,     // Page size
		"total":        p.Total,        // Total number of transactions
		"total_pages":  p.TotalPages,   // Total pages
		"cached":       cached,         // Whether the page came from Redis
	}
}
