package api

import (
	"net/http" // HTTP status codes
	"time"     // Time durations

	"finfeathers_tokens/internal/ledger" // Ledger service and store
	"finfeathers_tokens/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal type for USD amounts
)

// PurchaseRequest is the direct token purchase payload
type PurchaseRequest struct {
	AmountUSD     float64 `json:"amount_usd" binding:"required,gt=0"` // USD paid
	PaymentMethod string  `json:"payment_method"`                     // Defaults to card
}

// TransferRequest is the token transfer payload
type TransferRequest struct {
	ToUserID     string `json:"to_user_id" binding:"required"` // Receiving account
	Amount       int64  `json:"amount" binding:"required"`     // Amount in tokens
	TransferType string `json:"transfer_type"`                 // tip, drink, gift or transfer
	Message      string `json:"message"`                       // Optional message
}

// SpendRequest is the token redemption payload
type SpendRequest struct {
	Amount       int64  `json:"amount" binding:"required"` // Amount in tokens
	TransferType string `json:"transfer_type"`             // Defaults to drink
	Message      string `json:"message"`                   // Optional note
}

// CheckoutRequest opens a provider checkout session for a token package
type CheckoutRequest struct {
	UserID    string `json:"user_id" binding:"required"`    // Account to credit on completion
	PackageID string `json:"package_id" binding:"required"` // Token package id
}

// WebhookRequest is the provider payment notification payload
type WebhookRequest struct {
	SessionID string `json:"session_id" binding:"required"` // Checkout session id
}

// PackagesHandler returns the fixed token packages
func PackagesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ledger.Packages)
	}
}

// PurchaseHandler credits purchased tokens to an account
func PurchaseHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		var req PurchaseRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		purchase, newBalance, err := svc.Purchase(c.Request.Context(), userID, decimal.NewFromFloat(req.AmountUSD), req.PaymentMethod)
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, userID) // Balance changed
		c.JSON(http.StatusOK, gin.H{
			"purchase":    purchase,   // Purchase record
			"new_balance": newBalance, // Token balance after the credit
		})
	}
}

// BalanceHandler returns the token and cashout balances of one account
func BalanceHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("user_id")
		cacheKey := "balance:" + id
		// Try the cache first
		if rdb != nil {
			var cached gin.H
			if found, err := utils.GetCache(c.Request.Context(), rdb, cacheKey, &cached); err == nil && found {
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		account, err := store.Account(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		resp := gin.H{
			"token_balance":   account.TokenBalance,   // Tokens
			"cashout_balance": account.CashoutBalance, // USD from tips
			"total_earnings":  account.TotalEarnings,  // Lifetime USD paid out
		}
		// Cache the balances for 30 seconds
		if rdb != nil {
			_ = utils.SetCache(c.Request.Context(), rdb, cacheKey, resp, 30*time.Second)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// PurchaseHistoryHandler returns an account's purchase history, newest first
func PurchaseHistoryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		purchases, err := store.PurchasesByAccount(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, purchases)
	}
}

// TransferHandler moves tokens from the path account to the body account
func TransferHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		fromID := c.Param("from_user_id")
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		result, err := svc.Transfer(c.Request.Context(), fromID, req.ToUserID, req.Amount, req.TransferType, req.Message)
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, fromID, req.ToUserID) // Both balances changed
		c.JSON(http.StatusOK, gin.H{
			"transfer":           result.Record,           // Immutable transfer record
			"sender_new_balance": result.SenderNewBalance, // Sender tokens after the debit
			"recipient_name":     result.RecipientName,    // Receiver display name
		})
	}
}

// TransferHistoryHandler returns an account's transfer records, newest first
func TransferHistoryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		records, err := store.TransfersByAccount(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, records)
	}
}

// SpendHandler redeems tokens with no credit elsewhere
func SpendHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		var req SpendRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		newBalance, err := svc.SpendTokens(c.Request.Context(), userID, req.Amount, req.TransferType, req.Message)
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, userID)
		c.JSON(http.StatusOK, gin.H{"new_balance": newBalance})
	}
}

// CheckoutHandler opens a pending checkout session for a token package
func CheckoutHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CheckoutRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		payment, err := svc.CreateCheckout(c.Request.Context(), req.UserID, req.PackageID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"session_id": payment.SessionID, // Provider session id
			"checkout":   payment,           // Pending payment transaction
		})
	}
}

// PaymentWebhookHandler credits a completed checkout session. Safe to call
// more than once per session; only the first call credits.
func PaymentWebhookHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WebhookRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		payment, credited, err := svc.ConfirmCheckout(c.Request.Context(), req.SessionID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		if credited {
			invalidateProfileCache(rdb, payment.AccountID)
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"credited": credited, // False for duplicate notifications
		})
	}
}
