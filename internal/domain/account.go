package domain

import (
	"time"

	"github.com/shopspring/decimal" // Decimal type for USD amounts
)

// Account roles
const (
	RoleCustomer   = "customer"   // Default role for new accounts
	RoleStaff      = "staff"      // Staff can receive tips and cash out
	RoleManagement = "management" // Management role (no cashout privileges)
	RoleAdmin      = "admin"      // Admin can gift tokens and process cashouts
)

// ValidRole reports whether role is one of the known account roles
func ValidRole(role string) bool {
	switch role {
	case RoleCustomer, RoleStaff, RoleManagement, RoleAdmin:
		return true
	}
	return false
}

// Account Model (one balance record per user)
type Account struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`                          // Opaque UUID key
	Name            string          `gorm:"not null" json:"name"`                                  // Display name
	Email           string          `gorm:"unique;not null" json:"email"`                          // Unique email
	Username        *string         `gorm:"uniqueIndex;size:64" json:"username,omitempty"`         // Login name (admin/staff accounts only)
	PasswordHash    string          `json:"-"`                                                     // Hashed password (login accounts only)
	AvatarEmoji     string          `json:"avatar_emoji"`                                          // Avatar emoji shown on the check-in wall
	Role            string          `gorm:"default:customer" json:"role"`                          // customer, staff, management or admin
	StaffTitle      string          `json:"staff_title"`                                           // Optional title shown in the staff tipping list
	TokenBalance    int64           `gorm:"not null;default:0" json:"token_balance"`               // Token balance (10 tokens = $1)
	CashoutBalance  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cashout_balance"`    // USD balance accrued from tips (staff)
	TotalEarnings   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_earnings"`     // USD paid out over the account lifetime
	Birthdate       string          `json:"birthdate"`                                             // Optional birthdate (for birthday specials)
	Anniversary     string          `json:"anniversary"`                                           // Optional anniversary date
	InstagramHandle string          `json:"instagram_handle"`                                      // Optional Instagram handle
	FacebookHandle  string          `json:"facebook_handle"`                                       // Optional Facebook handle
	TotalVisits     int             `gorm:"not null;default:0" json:"total_visits"`                // Check-in count
	TotalPosts      int             `gorm:"not null;default:0" json:"total_posts"`                 // Social wall post count
	CreatedAt       time.Time       `json:"created_at"`                                            // Timestamp of creation
	UpdatedAt       time.Time       `json:"updated_at"`                                            // Timestamp of last update
}
