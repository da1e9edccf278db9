package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment transaction statuses
const (
	PaymentPending   = "pending"   // Checkout session created, not yet paid
	PaymentCompleted = "completed" // Provider confirmed payment, tokens credited
)

// PaymentTransaction Model (one per provider checkout session).
// The unique session id is what makes webhook crediting idempotent:
// duplicate notifications for the same session credit at most once.
type PaymentTransaction struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`                  // UUID
	SessionID   string          `gorm:"uniqueIndex;size:64;not null" json:"session_id"` // Provider checkout session id
	AccountID   string          `gorm:"size:36;index" json:"user_id"`                  // Account to credit
	PackageID   string          `gorm:"size:16;not null" json:"package_id"`            // Token package id
	AmountUSD   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_usd"` // USD amount of the package
	Tokens      int64           `gorm:"not null" json:"tokens"`                        // Tokens credited on completion
	Status      string          `gorm:"size:16;not null" json:"status"`                // pending or completed
	CreatedAt   time.Time       `json:"created_at"`                                    // Timestamp of creation
	CompletedAt *time.Time      `json:"completed_at,omitempty"`                        // Set when the session is credited
}
