package middleware

import (
	"net/http" // HTTP status codes

	"finfeathers_tokens/internal/domain" // Importing domain models
	"finfeathers_tokens/internal/ledger" // Account store interface

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware checks the account's role from the store on each request
func AdminOnlyMiddleware(store ledger.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get the account id from context
		// Check if the account id exists in context
		if !exists {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		account, err := store.Account(c.Request.Context(), userID.(string)) // Fetch the account
		if err != nil {
			// If the account is missing or any error, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// Check if the account role is admin
		if account.Role != domain.RoleAdmin {
			// If not admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		// If admin, proceed to the next handler
		c.Next()
	}
}
