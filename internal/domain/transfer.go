package domain

import "time"

// Transfer types
const (
	TransferTip           = "tip"             // Tip routed to staff cashout balance
	TransferDrink         = "drink"           // Tokens redeemed for a drink
	TransferGift          = "gift"            // Token gift between users
	TransferGeneric       = "transfer"        // Plain token transfer
	TransferTipToPersonal = "tip_to_personal" // Staff conversion of cashout balance to tokens
)

// TransferRecord Model (immutable, append-only)
type TransferRecord struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`        // UUID
	FromAccountID string    `gorm:"size:36;index" json:"from_user_id"`   // Sender account
	ToAccountID   string    `gorm:"size:36;index" json:"to_user_id"`     // Receiver account
	Amount        int64     `gorm:"not null" json:"amount"`              // Amount in tokens
	TransferType  string    `gorm:"size:32;not null" json:"transfer_type"` // tip, drink, gift, transfer, tip_to_personal
	Message       string    `json:"message,omitempty"`                   // Optional message from the sender
	CreatedAt     time.Time `gorm:"index" json:"created_at"`             // Timestamp of creation
}
