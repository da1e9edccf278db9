package ledger

import (
	"context"

	"finfeathers_tokens/internal/domain"

	"github.com/shopspring/decimal"
)

// TransferFilter narrows admin transfer listings
type TransferFilter struct {
	AccountID    string // Match sender or receiver
	TransferType string // Match the literal transfer type
	From         string // Created at or after (RFC 3339 or date)
	To           string // Created at or before
	Offset       int
	Limit        int
}

// Store is the account store consumed by the ledger. Balance mutations are
// conditional at the storage layer: a debit is observed and applied as one
// indivisible step, so a concurrent pair of debits cannot overdraw.
type Store interface {
	// Accounts
	Account(ctx context.Context, id string) (*domain.Account, error)
	AccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	AccountByUsername(ctx context.Context, username string) (*domain.Account, error)
	InsertAccount(ctx context.Context, account *domain.Account) error
	UpdateAccount(ctx context.Context, id string, fields map[string]any) error
	ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int64, error)
	ListStaff(ctx context.Context) ([]domain.Account, error)

	// Balance mutations. Debits fail with domain.ErrInsufficientBalance
	// (tokens) or domain.ErrExceedsBalance (cashout USD) when the guard
	// `balance >= amount` does not hold at update time.
	CreditTokens(ctx context.Context, id string, amount int64) error
	DebitTokens(ctx context.Context, id string, amount int64) error
	CreditCashout(ctx context.Context, id string, usd decimal.Decimal) error
	DebitCashout(ctx context.Context, id string, usd decimal.Decimal) error
	CreditEarnings(ctx context.Context, id string, usd decimal.Decimal) error

	// Immutable history
	AppendTransfer(ctx context.Context, record *domain.TransferRecord) error
	TransfersByAccount(ctx context.Context, id string) ([]domain.TransferRecord, error)
	ListTransfers(ctx context.Context, filter TransferFilter) ([]domain.TransferRecord, int64, error)
	AppendPurchase(ctx context.Context, purchase *domain.TokenPurchase) error
	PurchasesByAccount(ctx context.Context, id string) ([]domain.TokenPurchase, error)

	// Cashout requests
	InsertCashout(ctx context.Context, request *domain.CashoutRequest) error
	Cashout(ctx context.Context, id string) (*domain.CashoutRequest, error)
	UpdateCashout(ctx context.Context, id string, fields map[string]any) error
	CashoutsByAccount(ctx context.Context, id string) ([]domain.CashoutRequest, error)
	ListCashouts(ctx context.Context) ([]domain.CashoutRequest, error)

	// Payment transactions
	InsertPayment(ctx context.Context, tx *domain.PaymentTransaction) error
	PaymentBySession(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error)
	// CompletePayment flips the session from pending to completed and
	// reports whether this call won the flip.
	CompletePayment(ctx context.Context, sessionID string) (bool, error)

	// WithTx runs fn in a single storage transaction: either every write in
	// fn is applied or none is.
	WithTx(ctx context.Context, fn func(Store) error) error
}
