package storage

import (
	"context"
	"errors"
	"time"

	"finfeathers_tokens/internal/domain"
	"finfeathers_tokens/internal/ledger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm" // GORM ORM library
)

// MySQL is the gorm-backed account store. Debits are single conditional
// UPDATE statements guarded on the balance column, so the balance check and
// the decrement happen as one indivisible step even under concurrent requests.
type MySQL struct {
	db *gorm.DB
}

var _ ledger.Store = (*MySQL)(nil)

// NewMySQL wraps a gorm connection as a ledger store
func NewMySQL(db *gorm.DB) *MySQL {
	return &MySQL{db: db}
}

// WithTx runs fn against a store bound to a single database transaction
func (s *MySQL) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MySQL{db: tx})
	})
}

// Account fetches one account by id
func (s *MySQL) Account(ctx context.Context, id string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AccountByEmail fetches one account by email
func (s *MySQL) AccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AccountByUsername fetches one login account by username
func (s *MySQL) AccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var account domain.Account
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// InsertAccount creates a new account record
func (s *MySQL) InsertAccount(ctx context.Context, account *domain.Account) error {
	return s.db.WithContext(ctx).Create(account).Error
}

// UpdateAccount applies a partial field update to one account
func (s *MySQL) UpdateAccount(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListAccounts returns a page of accounts plus the total count
func (s *MySQL) ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.Account{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var accounts []domain.Account
	err := s.db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit).Find(&accounts).Error
	return accounts, total, err
}

// ListStaff returns all staff accounts for the tipping list
func (s *MySQL) ListStaff(ctx context.Context) ([]domain.Account, error) {
	var staff []domain.Account
	err := s.db.WithContext(ctx).Where("role = ?", domain.RoleStaff).Order("name").Find(&staff).Error
	return staff, err
}

// CreditTokens increments a token balance
func (s *MySQL) CreditTokens(ctx context.Context, id string, amount int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Update("token_balance", gorm.Expr("token_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DebitTokens decrements a token balance only if it covers the amount
func (s *MySQL) DebitTokens(ctx context.Context, id string, amount int64) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ? AND token_balance >= ?", id, amount).
		Update("token_balance", gorm.Expr("token_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// CreditCashout increments a cashout balance
func (s *MySQL) CreditCashout(ctx context.Context, id string, usd decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Update("cashout_balance", gorm.Expr("cashout_balance + ?", usd))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DebitCashout decrements a cashout balance only if it covers the amount
func (s *MySQL) DebitCashout(ctx context.Context, id string, usd decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).
		Where("id = ? AND cashout_balance >= ?", id, usd).
		Update("cashout_balance", gorm.Expr("cashout_balance - ?", usd))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrExceedsBalance
	}
	return nil
}

// CreditEarnings increments the lifetime earnings total
func (s *MySQL) CreditEarnings(ctx context.Context, id string, usd decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Account{}).Where("id = ?", id).
		Update("total_earnings", gorm.Expr("total_earnings + ?", usd))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// AppendTransfer stores one immutable transfer record
func (s *MySQL) AppendTransfer(ctx context.Context, record *domain.TransferRecord) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// TransfersByAccount returns an account's transfer history, newest first
func (s *MySQL) TransfersByAccount(ctx context.Context, id string) ([]domain.TransferRecord, error) {
	var records []domain.TransferRecord
	err := s.db.WithContext(ctx).
		Where("from_account_id = ? OR to_account_id = ?", id, id).
		Order("created_at desc").Find(&records).Error
	return records, err
}

// ListTransfers returns filtered transfer records for the admin view
func (s *MySQL) ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]domain.TransferRecord, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.TransferRecord{})
	if filter.AccountID != "" {
		query = query.Where("from_account_id = ? OR to_account_id = ?", filter.AccountID, filter.AccountID)
	}
	if filter.TransferType != "" {
		query = query.Where("transfer_type = ?", filter.TransferType)
	}
	if filter.From != "" {
		query = query.Where("created_at >= ?", filter.From)
	}
	if filter.To != "" {
		query = query.Where("created_at <= ?", filter.To)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var records []domain.TransferRecord
	err := query.Order("created_at desc").Offset(filter.Offset).Limit(filter.Limit).Find(&records).Error
	return records, total, err
}

// AppendPurchase stores one purchase-history record
func (s *MySQL) AppendPurchase(ctx context.Context, purchase *domain.TokenPurchase) error {
	return s.db.WithContext(ctx).Create(purchase).Error
}

// PurchasesByAccount returns an account's purchase history, newest first
func (s *MySQL) PurchasesByAccount(ctx context.Context, id string) ([]domain.TokenPurchase, error) {
	var purchases []domain.TokenPurchase
	err := s.db.WithContext(ctx).Where("account_id = ?", id).
		Order("created_at desc").Find(&purchases).Error
	return purchases, err
}

// InsertCashout creates a cashout request
func (s *MySQL) InsertCashout(ctx context.Context, request *domain.CashoutRequest) error {
	return s.db.WithContext(ctx).Create(request).Error
}

// Cashout fetches one cashout request by id
func (s *MySQL) Cashout(ctx context.Context, id string) (*domain.CashoutRequest, error) {
	var request domain.CashoutRequest
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCashoutNotFound
		}
		return nil, err
	}
	return &request, nil
}

// UpdateCashout applies a partial field update to one cashout request
func (s *MySQL) UpdateCashout(ctx context.Context, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&domain.CashoutRequest{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrCashoutNotFound
	}
	return nil
}

// CashoutsByAccount returns a staff account's cashout history, newest first
func (s *MySQL) CashoutsByAccount(ctx context.Context, id string) ([]domain.CashoutRequest, error) {
	var requests []domain.CashoutRequest
	err := s.db.WithContext(ctx).Where("account_id = ?", id).
		Order("created_at desc").Find(&requests).Error
	return requests, err
}

// ListCashouts returns all cashout requests, newest first
func (s *MySQL) ListCashouts(ctx context.Context) ([]domain.CashoutRequest, error) {
	var requests []domain.CashoutRequest
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&requests).Error
	return requests, err
}

// InsertPayment creates a pending payment transaction
func (s *MySQL) InsertPayment(ctx context.Context, tx *domain.PaymentTransaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

// PaymentBySession fetches one payment transaction by provider session id
func (s *MySQL) PaymentBySession(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	var payment domain.PaymentTransaction
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// CompletePayment flips a session from pending to completed. The conditional
// update makes duplicate provider notifications lose the flip and credit
// nothing.
func (s *MySQL) CompletePayment(ctx context.Context, sessionID string) (bool, error) {
	now := time.Now()
	res := s.db.WithContext(ctx).Model(&domain.PaymentTransaction{}).
		Where("session_id = ? AND status = ?", sessionID, domain.PaymentPending).
		Updates(map[string]any{"status": domain.PaymentCompleted, "completed_at": &now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
