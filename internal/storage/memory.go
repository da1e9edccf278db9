package storage

import (
	"context"
	"sync"
	"time"

	"finfeathers_tokens/internal/domain"
	"finfeathers_tokens/internal/ledger"

	"github.com/shopspring/decimal"
)

// Memory is an in-memory ledger store for tests and local development. It
// mirrors the conditional-debit semantics of the MySQL store. WithTx
// serializes whole operations and rolls the state back when fn fails, so the
// all-or-nothing contract holds here too.
type Memory struct {
	txMu sync.Mutex // serializes WithTx blocks
	mu   sync.Mutex // guards the maps and slices

	accounts     map[string]domain.Account
	transfers    []domain.TransferRecord
	purchases    []domain.TokenPurchase
	cashouts     map[string]domain.CashoutRequest
	cashoutOrder []string
	payments     map[string]domain.PaymentTransaction
}

var _ ledger.Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]domain.Account),
		cashouts: make(map[string]domain.CashoutRequest),
		payments: make(map[string]domain.PaymentTransaction),
	}
}

type memorySnapshot struct {
	accounts     map[string]domain.Account
	transferLen  int
	purchaseLen  int
	cashouts     map[string]domain.CashoutRequest
	cashoutOrder []string
	payments     map[string]domain.PaymentTransaction
}

// WithTx serializes the operation and restores the previous state if fn fails
func (m *Memory) WithTx(ctx context.Context, fn func(ledger.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snap := memorySnapshot{
		accounts:     make(map[string]domain.Account, len(m.accounts)),
		transferLen:  len(m.transfers),
		purchaseLen:  len(m.purchases),
		cashouts:     make(map[string]domain.CashoutRequest, len(m.cashouts)),
		cashoutOrder: append([]string(nil), m.cashoutOrder...),
		payments:     make(map[string]domain.PaymentTransaction, len(m.payments)),
	}
	for id, a := range m.accounts {
		snap.accounts[id] = a
	}
	for id, c := range m.cashouts {
		snap.cashouts[id] = c
	}
	for id, p := range m.payments {
		snap.payments[id] = p
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.accounts = snap.accounts
		m.transfers = m.transfers[:snap.transferLen]
		m.purchases = m.purchases[:snap.purchaseLen]
		m.cashouts = snap.cashouts
		m.cashoutOrder = snap.cashoutOrder
		m.payments = snap.payments
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) Account(ctx context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &account, nil
}

func (m *Memory) AccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Email == email {
			a := account
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *Memory) AccountByUsername(ctx context.Context, username string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.Username != nil && *account.Username == username {
			a := account
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *Memory) InsertAccount(ctx context.Context, account *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == account.Email {
			return domain.ErrEmailExists
		}
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) UpdateAccount(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	for key, value := range fields {
		switch key {
		case "name":
			account.Name = value.(string)
		case "avatar_emoji":
			account.AvatarEmoji = value.(string)
		case "role":
			account.Role = value.(string)
		case "staff_title":
			account.StaffTitle = value.(string)
		case "birthdate":
			account.Birthdate = value.(string)
		case "anniversary":
			account.Anniversary = value.(string)
		case "instagram_handle":
			account.InstagramHandle = value.(string)
		case "facebook_handle":
			account.FacebookHandle = value.(string)
		}
	}
	account.UpdatedAt = time.Now()
	m.accounts[id] = account
	return nil
}

func (m *Memory) ListAccounts(ctx context.Context, offset, limit int) ([]domain.Account, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]domain.Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		all = append(all, account)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *Memory) ListStaff(ctx context.Context) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var staff []domain.Account
	for _, account := range m.accounts {
		if account.Role == domain.RoleStaff {
			staff = append(staff, account)
		}
	}
	return staff, nil
}

func (m *Memory) CreditTokens(ctx context.Context, id string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.TokenBalance += amount
	m.accounts[id] = account
	return nil
}

func (m *Memory) DebitTokens(ctx context.Context, id string, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if account.TokenBalance < amount {
		return domain.ErrInsufficientBalance
	}
	account.TokenBalance -= amount
	m.accounts[id] = account
	return nil
}

func (m *Memory) CreditCashout(ctx context.Context, id string, usd decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.CashoutBalance = account.CashoutBalance.Add(usd)
	m.accounts[id] = account
	return nil
}

func (m *Memory) DebitCashout(ctx context.Context, id string, usd decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if account.CashoutBalance.LessThan(usd) {
		return domain.ErrExceedsBalance
	}
	account.CashoutBalance = account.CashoutBalance.Sub(usd)
	m.accounts[id] = account
	return nil
}

func (m *Memory) CreditEarnings(ctx context.Context, id string, usd decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.TotalEarnings = account.TotalEarnings.Add(usd)
	m.accounts[id] = account
	return nil
}

func (m *Memory) AppendTransfer(ctx context.Context, record *domain.TransferRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers = append(m.transfers, *record)
	return nil
}

func (m *Memory) TransfersByAccount(ctx context.Context, id string) ([]domain.TransferRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records := []domain.TransferRecord{}
	for i := len(m.transfers) - 1; i >= 0; i-- {
		if m.transfers[i].FromAccountID == id || m.transfers[i].ToAccountID == id {
			records = append(records, m.transfers[i])
		}
	}
	return records, nil
}

func (m *Memory) ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]domain.TransferRecord, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := []domain.TransferRecord{}
	for i := len(m.transfers) - 1; i >= 0; i-- {
		record := m.transfers[i]
		if filter.AccountID != "" && record.FromAccountID != filter.AccountID && record.ToAccountID != filter.AccountID {
			continue
		}
		if filter.TransferType != "" && record.TransferType != filter.TransferType {
			continue
		}
		matched = append(matched, record)
	}
	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (m *Memory) AppendPurchase(ctx context.Context, purchase *domain.TokenPurchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases = append(m.purchases, *purchase)
	return nil
}

func (m *Memory) PurchasesByAccount(ctx context.Context, id string) ([]domain.TokenPurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purchases := []domain.TokenPurchase{}
	for i := len(m.purchases) - 1; i >= 0; i-- {
		if m.purchases[i].AccountID == id {
			purchases = append(purchases, m.purchases[i])
		}
	}
	return purchases, nil
}

func (m *Memory) InsertCashout(ctx context.Context, request *domain.CashoutRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cashouts[request.ID] = *request
	m.cashoutOrder = append(m.cashoutOrder, request.ID)
	return nil
}

func (m *Memory) Cashout(ctx context.Context, id string) (*domain.CashoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.cashouts[id]
	if !ok {
		return nil, domain.ErrCashoutNotFound
	}
	return &request, nil
}

func (m *Memory) UpdateCashout(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.cashouts[id]
	if !ok {
		return domain.ErrCashoutNotFound
	}
	for key, value := range fields {
		switch key {
		case "status":
			request.Status = value.(string)
		case "processed_at":
			request.ProcessedAt = value.(*time.Time)
		}
	}
	m.cashouts[id] = request
	return nil
}

func (m *Memory) CashoutsByAccount(ctx context.Context, id string) ([]domain.CashoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := []domain.CashoutRequest{}
	for i := len(m.cashoutOrder) - 1; i >= 0; i-- {
		if request := m.cashouts[m.cashoutOrder[i]]; request.AccountID == id {
			requests = append(requests, request)
		}
	}
	return requests, nil
}

func (m *Memory) ListCashouts(ctx context.Context) ([]domain.CashoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	requests := []domain.CashoutRequest{}
	for i := len(m.cashoutOrder) - 1; i >= 0; i-- {
		requests = append(requests, m.cashouts[m.cashoutOrder[i]])
	}
	return requests, nil
}

func (m *Memory) InsertPayment(ctx context.Context, tx *domain.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[tx.SessionID] = *tx
	return nil
}

func (m *Memory) PaymentBySession(ctx context.Context, sessionID string) (*domain.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &payment, nil
}

func (m *Memory) CompletePayment(ctx context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payment, ok := m.payments[sessionID]
	if !ok || payment.Status != domain.PaymentPending {
		return false, nil
	}
	now := time.Now()
	payment.Status = domain.PaymentCompleted
	payment.CompletedAt = &now
	m.payments[sessionID] = payment
	return true, nil
}
