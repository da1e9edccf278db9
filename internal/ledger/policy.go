package ledger

import "finfeathers_tokens/internal/domain"

// CreditDestination is where a transfer's credit lands on the receiving side
type CreditDestination int

const (
	CreditToTokens  CreditDestination = iota // token_balance, in tokens
	CreditToCashout                          // cashout_balance, converted to USD
)

// RouteCredit decides the credit destination for a transfer. Tips to staff
// land in the cashout balance at the fixed 10:1 rate; every other combination
// credits tokens directly. Pure function of (receiver role, transfer type).
func RouteCredit(receiverRole, transferType string) CreditDestination {
	if transferType == domain.TransferTip && receiverRole == domain.RoleStaff {
		return CreditToCashout
	}
	return CreditToTokens
}
