package api

import (
	"finfeathers_tokens/internal/ledger"     // Ledger service and store
	"finfeathers_tokens/internal/middleware" // Auth middleware

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Router builds the full route table over the given store and ledger service.
// rdb may be nil, which disables response caching (tests, local runs).
func Router(store ledger.Store, svc *ledger.Service, rdb *redis.Client, jwtSecret string) *gin.Engine {
	r := gin.Default() // Gin router instance

	// Auth route
	r.POST("/auth/login", LoginHandler(store, jwtSecret)) // Admin/staff login endpoint

	// Public profile routes
	r.POST("/user/profile", CreateProfileHandler(store))                    // Signup endpoint
	r.GET("/user/profile/by-email/:email", GetProfileByEmailHandler(store)) // Profile lookup by email
	r.GET("/user/profile/:user_id", GetProfileHandler(store, rdb))          // Profile endpoint
	r.PUT("/user/profile/:user_id", UpdateProfileHandler(store, rdb))       // Profile update endpoint

	// Token routes
	tokens := r.Group("/tokens")
	tokens.GET("/packages", PackagesHandler())                          // Token package list
	tokens.POST("/purchase/:user_id", PurchaseHandler(svc, rdb))        // Direct purchase endpoint
	tokens.GET("/balance/:user_id", BalanceHandler(store, rdb))         // Balance endpoint
	tokens.GET("/history/:user_id", PurchaseHistoryHandler(store))      // Purchase history endpoint
	tokens.POST("/transfer/:from_user_id", TransferHandler(svc, rdb))   // Transfer/tip endpoint
	tokens.GET("/transfers/:user_id", TransferHistoryHandler(store))    // Transfer history endpoint
	tokens.POST("/spend/:user_id", SpendHandler(svc, rdb))              // Redemption endpoint
	tokens.POST("/checkout", CheckoutHandler(svc))                      // Provider checkout endpoint

	// Payment provider notification (idempotent crediting)
	r.POST("/webhook/payment", PaymentWebhookHandler(svc, rdb))

	// Staff routes
	staff := r.Group("/staff")
	staff.GET("/list", StaffListHandler(store))                                      // Tipping list
	staff.POST("/cashout/:user_id", CashoutHandler(svc, rdb))                        // Cashout request endpoint
	staff.GET("/cashout/history/:user_id", CashoutHistoryHandler(store))             // Cashout history endpoint
	staff.POST("/transfer-to-personal/:user_id", TransferToPersonalHandler(svc, rdb)) // Personal conversion endpoint

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(middleware.JWTAuthMiddleware(jwtSecret), middleware.AdminOnlyMiddleware(store))
	admin.GET("/users", ListUsersHandler(store, rdb))                 // List accounts endpoint
	admin.POST("/users/role", SetRoleHandler(store, rdb))             // Role management endpoint
	admin.POST("/tokens/gift", GiftHandler(svc, rdb))                 // Token gift endpoint
	admin.GET("/cashouts", ListCashoutsHandler(store))                // Cashout request list
	admin.PUT("/cashouts/:cashout_id", ProcessCashoutHandler(svc))    // Cashout processing endpoint
	admin.GET("/transfers", ListTransfersHandler(store, rdb))         // Transfer listing endpoint

	return r
}
