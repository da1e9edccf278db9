package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion

	"finfeathers_tokens/internal/ledger" // Ledger service and store

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal type for USD amounts
)

// CashoutRequestBody is the staff cashout payload
type CashoutRequestBody struct {
	AmountTokens   int64  `json:"amount_tokens" binding:"required"`  // Requested amount in tokens
	PaymentMethod  string `json:"payment_method" binding:"required"` // venmo, cashapp, ...
	PaymentDetails string `json:"payment_details"`                   // Handle/address for the payout
}

// StaffEntry is one row in the public tipping list
type StaffEntry struct {
	ID         string `json:"id"`          // Account id
	Name       string `json:"name"`        // Display name
	StaffTitle string `json:"staff_title"` // Title shown under the name
}

// StaffListHandler returns the staff members available for tipping
func StaffListHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff, err := store.ListStaff(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		entries := make([]StaffEntry, len(staff))
		for i, account := range staff {
			entries[i] = StaffEntry{
				ID:         account.ID,
				Name:       account.Name,
				StaffTitle: account.StaffTitle,
			}
		}
		c.JSON(http.StatusOK, entries)
	}
}

// CashoutHandler creates a pending cashout request for a staff account
func CashoutHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		var req CashoutRequestBody // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		result, err := svc.RequestCashout(c.Request.Context(), userID, req.AmountTokens, req.PaymentMethod, req.PaymentDetails)
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, userID) // Cashout balance changed
		c.JSON(http.StatusOK, gin.H{
			"request":             result.Request,           // Pending cashout request
			"payout_amount":       result.PayoutAmount,      // USD after the 20% fee
			"new_cashout_balance": result.NewCashoutBalance, // Remaining cashout balance
		})
	}
}

// CashoutHistoryHandler returns a staff account's cashout requests, newest first
func CashoutHistoryHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		requests, err := store.CashoutsByAccount(c.Request.Context(), c.Param("user_id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}

// TransferToPersonalHandler converts part of a staff cashout balance to tokens
func TransferToPersonalHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")
		// Amount comes as a query parameter in USD
		amount, err := strconv.ParseFloat(c.Query("amount"), 64)
		if err != nil || amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		result, err := svc.TransferToPersonal(c.Request.Context(), userID, decimal.NewFromFloat(amount))
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, userID) // Both balances changed
		c.JSON(http.StatusOK, gin.H{
			"tokens_added":        result.TokensAdded,       // Tokens credited
			"new_token_balance":   result.NewTokenBalance,   // Token balance after the credit
			"new_cashout_balance": result.NewCashoutBalance, // Remaining cashout balance
		})
	}
}
