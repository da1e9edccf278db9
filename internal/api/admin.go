package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Time durations

	"finfeathers_tokens/internal/domain" // Importing domain models
	"finfeathers_tokens/internal/ledger" // Ledger service and store
	"finfeathers_tokens/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// RoleUpdateRequest is the admin role-change payload
type RoleUpdateRequest struct {
	UserID     string `json:"user_id" binding:"required"`  // Target account
	NewRole    string `json:"new_role" binding:"required"` // customer, staff, management or admin
	StaffTitle string `json:"staff_title"`                 // Optional title for staff accounts
}

// GiftRequest is the admin token gift payload
type GiftRequest struct {
	UserID  string `json:"user_id" binding:"required"` // Target account
	Tokens  int64  `json:"tokens" binding:"required"`  // Tokens to credit
	Message string `json:"message"`                    // Optional gift message
}

// pagination reads page/page_size query parameters with the usual bounds
func pagination(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20 // Defaults
	if p := c.Query("page"); p != "" {
		// Convert page to integer
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		// Convert page_size to integer
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size if valid
		}
	}
	return page, pageSize
}

// ListUsersHandler returns all accounts with balances, paginated and cached
func ListUsersHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination parameters
		cacheKey := "admin:users:page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		if rdb != nil {
			var cached gin.H
			// If cached data found, return it
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				cached["cached"] = true
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		page, pageSize := pagination(c)
		offset := (page - 1) * pageSize // Calculate offset for pagination
		accounts, total, err := store.ListAccounts(c.Request.Context(), offset, pageSize)
		if err != nil {
			abortWithError(c, err)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"users":       accounts,   // List of accounts
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of accounts
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		c.JSON(http.StatusOK, resp)
	}
}

// SetRoleHandler changes an account's role (and optional staff title)
func SetRoleHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RoleUpdateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Reject unknown roles
		if !domain.ValidRole(req.NewRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
			return
		}
		fields := map[string]any{"role": req.NewRole}
		if req.StaffTitle != "" {
			fields["staff_title"] = req.StaffTitle
		}
		if err := store.UpdateAccount(c.Request.Context(), req.UserID, fields); err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, req.UserID) // Role shows on the profile
		c.JSON(http.StatusOK, gin.H{"message": "Role updated"})
	}
}

// GiftHandler credits tokens to an account with no corresponding debit
func GiftHandler(svc *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, exists := c.Get("userID") // Acting admin from the JWT middleware
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req GiftRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		gift, newBalance, err := svc.AdminGift(c.Request.Context(), adminID.(string), req.UserID, req.Tokens, req.Message)
		if err != nil {
			abortWithError(c, err)
			return
		}
		invalidateProfileCache(rdb, req.UserID)
		c.JSON(http.StatusOK, gin.H{
			"gift":        gift,       // Gift history record
			"new_balance": newBalance, // Token balance after the credit
		})
	}
}

// ListCashoutsHandler returns all cashout requests, newest first
func ListCashoutsHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		requests, err := store.ListCashouts(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, requests)
	}
}

// ProcessCashoutHandler sets the status of one cashout request
func ProcessCashoutHandler(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, exists := c.Get("userID") // Acting admin from the JWT middleware
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		request, err := svc.ProcessCashout(c.Request.Context(), adminID.(string), c.Param("cashout_id"), c.Query("status"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, request)
	}
}

// ListTransfersHandler returns all transfers, with optional filtering by user, type, or date
func ListTransfersHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		// Append each query parameter to the key parts
		for _, k := range []string{"user_id", "type", "from", "to", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		// Join key parts to form the final cache key
		cacheKey := "admin:transfers:" + strings.Join(keyParts, ":")
		if rdb != nil {
			var cached gin.H
			// If cached data found, return it
			if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
				cached["cached"] = true
				c.JSON(http.StatusOK, cached)
				return
			}
		}
		page, pageSize := pagination(c)
		records, total, err := store.ListTransfers(c.Request.Context(), ledger.TransferFilter{
			AccountID:    c.Query("user_id"), // Filter by account
			TransferType: c.Query("type"),    // Filter by transfer type
			From:         c.Query("from"),    // Filter by start date
			To:           c.Query("to"),      // Filter by end date
			Offset:       (page - 1) * pageSize,
			Limit:        pageSize,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transfers":   records,    // List of transfer records
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of transfers
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		c.JSON(http.StatusOK, resp)
	}
}
