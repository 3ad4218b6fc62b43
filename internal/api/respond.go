package api

import (
	"core_banking/internal/domain"     // Domain sentinel errors
	"core_banking/internal/middleware" // Context keys
	"errors"                           // Sentinel comparison
	"net/http"                         // HTTP status codes
	"strconv"                          // Path parameter parsing

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Structured logging
	"gorm.io/gorm"               // GORM sentinel errors
)

// errInvalidQuery reports a malformed query parameter
var errInvalidQuery = errors.New("invalid query parameter")

// Errors a client can fix by changing the request
var badRequestErrors = []error{
	errInvalidQuery,
	domain.ErrInvalidType,
	domain.ErrInvalidStatus,
	domain.ErrNonPositiveAmount,
	domain.ErrAmountPrecision,
	domain.ErrInvalidCurrency,
	domain.ErrNoAccounts,
	domain.ErrSameAccount,
	domain.ErrInvalidFraudScore,
	domain.ErrAutomatedByTooLong,
	domain.ErrProcessedAtState,
	domain.ErrInvalidAccountType,
	domain.ErrInvalidAccountStatus,
}

// Errors caused by the current state of a stored record
var conflictErrors = []error{
	domain.ErrInvalidTransition,
	domain.ErrReversalRequired,
	domain.ErrReversalOfReversal,
	domain.ErrStaleStatus,
	domain.ErrDuplicateReference,
	domain.ErrAccountInactive,
	gorm.ErrDuplicatedKey,
}

// statusFor maps an error to the HTTP status returned to the client
func statusFor(err error) int {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	if errors.Is(err, domain.ErrTransactionNotFound) || errors.Is(err, domain.ErrAccountNotFound) {
		return http.StatusNotFound
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Internal errors are logged and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err.Error(),
		}).Error("Request failed")
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// caller returns the authenticated user id and whether they hold the admin role
func caller(c *gin.Context) (uint, bool, bool) {
	raw, exists := c.Get(middleware.ContextUserID) // Set by JWTAuthMiddleware
	if !exists {
		return 0, false, false
	}
	userID, ok := raw.(uint)
	if !ok {
		return 0, false, false
	}
	return userID, c.GetString(middleware.ContextRole) == domain.RoleAdmin, true
}

// actorName labels audit events with who made the change
func actorName(c *gin.Context) string {
	userID, _, ok := caller(c)
	if !ok {
		return "system"
	}
	return "user:" + strconv.FormatUint(uint64(userID), 10)
}

// idParam parses a numeric path parameter
func idParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// paging reads page and page_size query parameters
func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}
