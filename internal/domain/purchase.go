package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenPurchase Model (purchase and gift history)
type TokenPurchase struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`                     // UUID
	AccountID       string          `gorm:"size:36;index" json:"user_id"`                     // Credited account
	AmountUSD       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_usd"`    // USD paid (token value for gifts)
	TokensPurchased int64           `gorm:"not null" json:"tokens_purchased"`                 // Tokens credited
	PaymentMethod   string          `gorm:"size:32;not null" json:"payment_method"`           // card, stripe, woocommerce or gift
	GiftedBy        string          `json:"gifted_by,omitempty"`                              // Admin username for gifts
	Message         string          `json:"message,omitempty"`                                // Optional gift message
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`                          // Timestamp of creation
}
