package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Time durations

	"finfeathers_tokens/internal/domain" // Importing domain models
	"finfeathers_tokens/internal/ledger" // Account store interface
	"finfeathers_tokens/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // UUID generation
	"github.com/redis/go-redis/v9" // Redis client
)

// CreateProfileRequest is the signup payload
type CreateProfileRequest struct {
	Name        string `json:"name" binding:"required"`        // Display name
	Email       string `json:"email" binding:"required,email"` // Unique email
	AvatarEmoji string `json:"avatar_emoji"`                   // Optional avatar emoji
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	Name            *string `json:"name"`
	AvatarEmoji     *string `json:"avatar_emoji"`
	Birthdate       *string `json:"birthdate"`
	Anniversary     *string `json:"anniversary"`
	InstagramHandle *string `json:"instagram_handle"`
	FacebookHandle  *string `json:"facebook_handle"`
}

// invalidateProfileCache drops the cached profile and balance for an account
func invalidateProfileCache(rdb *redis.Client, ids ...string) {
	if rdb == nil {
		return
	}
	ctx := context.Background()
	for _, id := range ids {
		_ = utils.DeleteCache(ctx, rdb, "profile:"+id)
		_ = utils.DeleteCache(ctx, rdb, "balance:"+id)
	}
}

// CreateProfileHandler creates a new customer account
func CreateProfileHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Reject duplicate emails before inserting
		if _, err := store.AccountByEmail(c.Request.Context(), req.Email); err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		account := &domain.Account{
			ID:          uuid.New().String(),   // Opaque account id
			Name:        req.Name,              // Display name
			Email:       req.Email,             // Unique email
			AvatarEmoji: req.AvatarEmoji,       // Optional avatar
			Role:        domain.RoleCustomer,   // New accounts default to customer
			CreatedAt:   time.Now(),            // Timestamp of creation
		}
		if err := store.InsertAccount(c.Request.Context(), account); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, account) // Return the created profile
	}
}

// GetProfileHandler returns one account profile by id
func GetProfileHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("user_id")
		cacheKey := "profile:" + id
		// Try the cache first
		if rdb != nil {
			var cached domain.Account
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
		// Cache the profile for 60 seconds
		if rdb != nil {
			_ = utils.SetCache(c.Request.Context(), rdb, cacheKey, account, 60*time.Second)
		}
		c.JSON(http.StatusOK, account)
	}
}

// GetProfileByEmailHandler returns one account profile by email
func GetProfileByEmailHandler(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := store.AccountByEmail(c.Request.Context(), c.Param("email"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

// UpdateProfileHandler updates the editable fields of one account
func UpdateProfileHandler(store ledger.Store, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("user_id")
		var req UpdateProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Collect only the fields the caller supplied
		fields := map[string]any{}
		if req.Name != nil {
			fields["name"] = *req.Name
		}
		if req.AvatarEmoji != nil {
			fields["avatar_emoji"] = *req.AvatarEmoji
		}
		if req.Birthdate != nil {
			fields["birthdate"] = *req.Birthdate
		}
		if req.Anniversary != nil {
			fields["anniversary"] = *req.Anniversary
		}
		if req.InstagramHandle != nil {
			fields["instagram_handle"] = *req.InstagramHandle
		}
		if req.FacebookHandle != nil {
			fields["facebook_handle"] = *req.FacebookHandle
		}
		if len(fields) > 0 {
			if err := store.UpdateAccount(c.Request.Context(), id, fields); err != nil {
				abortWithError(c, err)
				return
			}
		}
		invalidateProfileCache(rdb, id) // Drop the stale cached profile
		account, err := store.Account(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, account) // Return the updated profile
	}
}
