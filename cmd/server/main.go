package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"finfeathers_tokens/internal/api"     // Custom package for API handlers
	"finfeathers_tokens/internal/config"  // Custom package for configuration
	"finfeathers_tokens/internal/ledger"  // Ledger service
	"finfeathers_tokens/internal/storage" // Account store implementations

	// For loading .env files
	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Decimal type for USD amounts
	"github.com/sirupsen/logrus"    // Logrus for structured logging
	"gorm.io/driver/mysql"          // MySQL driver for GORM
	"gorm.io/gorm"                  // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// USD amounts serialize as plain JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	store := storage.NewMySQL(db) // Account store over gorm
	svc := ledger.New(store)      // Ledger service over the store

	r := api.Router(store, svc, redisClient, cfg.JWTSecret) // Full route table

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
