package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cashout request statuses
const (
	CashoutPending  = "pending"  // Awaiting admin review
	CashoutApproved = "approved" // Approved, payout in flight
	CashoutPaid     = "paid"     // Payout sent
	CashoutRejected = "rejected" // Rejected by admin
)

// ValidCashoutStatus reports whether status is a valid admin-set status
func ValidCashoutStatus(status string) bool {
	switch status {
	case CashoutApproved, CashoutPaid, CashoutRejected:
		return true
	}
	return false
}

// CashoutRequest Model (created by staff, processed by admin)
type CashoutRequest struct {
	ID             string          `gorm:"primaryKey;size:36" json:"id"`                  // UUID
	AccountID      string          `gorm:"size:36;index" json:"user_id"`                  // Requesting staff account
	AmountTokens   int64           `gorm:"not null" json:"amount_tokens"`                 // Requested amount in tokens
	AmountUSD      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_usd"` // Payout amount (after the 20% platform fee)
	Status         string          `gorm:"size:16;not null" json:"status"`                // pending, approved, paid or rejected
	PaymentMethod  string          `gorm:"size:32;not null" json:"payment_method"`        // venmo, cashapp, ...
	PaymentDetails string          `json:"payment_details"`                               // Handle/address for the payout
	CreatedAt      time.Time       `gorm:"index" json:"created_at"`                       // Timestamp of creation
	ProcessedAt    *time.Time      `json:"processed_at,omitempty"`                        // Set on admin status transition
}
