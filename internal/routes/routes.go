package routes

import (
	"net/http"
	"time"

	"core_banking/internal/accounts"
	"core_banking/internal/api"
	"core_banking/internal/config"
	"core_banking/internal/ledger"
	"core_banking/internal/middleware"
	"core_banking/internal/repository"
	"core_banking/internal/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// cachePrefix namespaces every Redis key the service writes
const cachePrefix = "core_banking:"

// RegisterRoutes wires repositories, services and handlers onto r.
// rdb may be nil, in which case reads go straight to the database.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb *redis.Client, cfg *config.Config) {
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	var cache *utils.Cache
	if rdb != nil {
		cache = utils.NewCache(rdb, cachePrefix, cfg.CacheTTL)
	}
	transactionRepo := repository.NewTransactionRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	ledgerService := ledger.NewService(transactionRepo, accountRepo, cache, cfg.DefaultCurrency)
	accountService := accounts.NewService(accountRepo, cfg.DefaultCurrency)

	// Health check
	r.GET("/health", healthHandler(db, rdb))

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	auth := middleware.JWTAuthMiddleware(cfg.JWTSecret)
	adminOnly := middleware.AdminOnlyMiddleware(db)

	accountGroup := r.Group("/accounts", auth)
	accountGroup.POST("", api.OpenAccountHandler(accountService))
	accountGroup.GET("", api.ListAccountsHandler(accountService))
	accountGroup.GET("/:id", api.GetAccountHandler(accountService))
	accountGroup.GET("/:id/transactions", api.AccountTransactionsHandler(accountService, ledgerService))

	txGroup := r.Group("/transactions", auth)
	txGroup.POST("", api.CreateTransactionHandler(accountService, ledgerService))
	txGroup.GET("/:reference", api.GetTransactionHandler(accountService, ledgerService))
	txGroup.GET("/:reference/events", api.TransactionHistoryHandler(accountService, ledgerService))
	// Lifecycle changes are operator actions
	txGroup.POST("/:reference/status", adminOnly, api.AdvanceTransactionHandler(ledgerService))
	txGroup.POST("/:reference/reverse", adminOnly, api.ReverseTransactionHandler(ledgerService))
	txGroup.POST("/:reference/fraud", adminOnly, api.AssessFraudHandler(ledgerService))

	adminGroup := r.Group("/admin", auth, adminOnly)
	adminGroup.GET("/users", api.ListUsersHandler(db, cache))
	adminGroup.GET("/transactions", api.ListTransactionsHandler(ledgerService))
	adminGroup.PATCH("/accounts/:id/status", api.SetAccountStatusHandler(accountService))
}

func healthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "up"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"], status["database"] = "degraded", "down"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["cache"] = "up"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status["cache"] = "down" // Reads still work without Redis
			}
		}
		c.JSON(code, status)
	}
}
