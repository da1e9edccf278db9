package db

import (
	"time"

	"finfeathers_tokens/internal/domain" // Importing domain models

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt" // Password hashing for the seed admin

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(
		&domain.Account{},
		&domain.TransferRecord{},
		&domain.TokenPurchase{},
		&domain.CashoutRequest{},
		&domain.PaymentTransaction{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}

// SeedAdmin ensures a login-capable admin account exists. No-op when the
// username is already taken or credentials are not configured.
func SeedAdmin(dsn, username, password string) {
	if username == "" || password == "" {
		return
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	var existing domain.Account
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		return // Admin already seeded
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.Fatalf("failed to hash admin password: %v", err)
	}
	admin := domain.Account{
		ID:           uuid.New().String(),
		Name:         username,
		Email:        username + "@finfeathers.local",
		Username:     &username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		logrus.Fatalf("failed to seed admin account: %v", err)
	}
	logrus.WithField("username", username).Info("Admin account seeded.")
}
