package storage

import (
	"context"
	"errors"
	"testing"

	"finfeathers_tokens/internal/domain"
	"finfeathers_tokens/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, m *Memory, tokens int64, cashoutUSD string) *domain.Account {
	t.Helper()
	account := &domain.Account{
		ID:             uuid.New().String(),
		Name:           "Test Account",
		Email:          uuid.New().String() + "@example.com",
		Role:           domain.RoleStaff,
		TokenBalance:   tokens,
		CashoutBalance: decimal.RequireFromString(cashoutUSD),
	}
	require.NoError(t, m.InsertAccount(context.Background(), account))
	return account
}

func TestDebitTokensConditional(t *testing.T) {
	m := NewMemory()
	account := newAccount(t, m, 100, "0")
	ctx := context.Background()

	require.NoError(t, m.DebitTokens(ctx, account.ID, 60))

	err := m.DebitTokens(ctx, account.ID, 41)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The failed debit must leave the balance untouched
	after, err := m.Account(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), after.TokenBalance)

	// Debiting exactly the remaining balance succeeds
	require.NoError(t, m.DebitTokens(ctx, account.ID, 40))
	after, _ = m.Account(ctx, account.ID)
	assert.Equal(t, int64(0), after.TokenBalance)
}

func TestDebitCashoutConditional(t *testing.T) {
	m := NewMemory()
	account := newAccount(t, m, 0, "20.00")
	ctx := context.Background()

	err := m.DebitCashout(ctx, account.ID, decimal.RequireFromString("20.01"))
	assert.ErrorIs(t, err, domain.ErrExceedsBalance)

	require.NoError(t, m.DebitCashout(ctx, account.ID, decimal.NewFromInt(20)))
	after, _ := m.Account(ctx, account.ID)
	assert.True(t, after.CashoutBalance.IsZero())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	m := NewMemory()
	account := newAccount(t, m, 100, "10.00")
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx ledger.Store) error {
		require.NoError(t, tx.DebitTokens(ctx, account.ID, 50))
		require.NoError(t, tx.CreditCashout(ctx, account.ID, decimal.NewFromInt(5)))
		require.NoError(t, tx.AppendTransfer(ctx, &domain.TransferRecord{
			ID:            uuid.New().String(),
			FromAccountID: account.ID,
			ToAccountID:   account.ID,
			Amount:        50,
			TransferType:  domain.TransferGeneric,
		}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	after, _ := m.Account(ctx, account.ID)
	assert.Equal(t, int64(100), after.TokenBalance)
	assert.True(t, after.CashoutBalance.Equal(decimal.RequireFromString("10.00")))

	records, _ := m.TransfersByAccount(ctx, account.ID)
	assert.Empty(t, records, "transfer appended inside a failed block must not survive")
}

func TestWithTxCommits(t *testing.T) {
	m := NewMemory()
	account := newAccount(t, m, 100, "0")
	ctx := context.Background()

	err := m.WithTx(ctx, func(tx ledger.Store) error {
		return tx.DebitTokens(ctx, account.ID, 30)
	})
	require.NoError(t, err)

	after, _ := m.Account(ctx, account.ID)
	assert.Equal(t, int64(70), after.TokenBalance)
}

func TestInsertAccountDuplicateEmail(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	account := newAccount(t, m, 0, "0")

	err := m.InsertAccount(ctx, &domain.Account{
		ID:    uuid.New().String(),
		Name:  "Other",
		Email: account.Email,
	})
	assert.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestAccountLookups(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	username := "sysadmin"
	account := &domain.Account{
		ID:       uuid.New().String(),
		Name:     "Admin",
		Email:    "admin@example.com",
		Username: &username,
		Role:     domain.RoleAdmin,
	}
	require.NoError(t, m.InsertAccount(ctx, account))

	byEmail, err := m.AccountByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	byUsername, err := m.AccountByUsername(ctx, "sysadmin")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byUsername.ID)

	_, err = m.Account(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = m.AccountByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	_, err = m.AccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestCompletePaymentWinsOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	session := "cs_" + uuid.New().String()
	require.NoError(t, m.InsertPayment(ctx, &domain.PaymentTransaction{
		ID:        uuid.New().String(),
		AccountID: uuid.New().String(),
		SessionID: session,
		Tokens:    100,
		AmountUSD: decimal.NewFromInt(10),
		Status:    domain.PaymentPending,
	}))

	won, err := m.CompletePayment(ctx, session)
	require.NoError(t, err)
	assert.True(t, won)

	// Replays lose the flip
	won, err = m.CompletePayment(ctx, session)
	require.NoError(t, err)
	assert.False(t, won)

	payment, err := m.PaymentBySession(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCompleted, payment.Status)
	assert.NotNil(t, payment.CompletedAt)

	_, err = m.PaymentBySession(ctx, "cs_unknown")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestListTransfersFilter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	alice := uuid.New().String()
	bob := uuid.New().String()

	for i, tt := range []struct{ from, to, kind string }{
		{alice, bob, domain.TransferTip},
		{bob, alice, domain.TransferGift},
		{alice, bob, domain.TransferTip},
	} {
		require.NoError(t, m.AppendTransfer(ctx, &domain.TransferRecord{
			ID:            uuid.New().String(),
			FromAccountID: tt.from,
			ToAccountID:   tt.to,
			Amount:        int64(i + 1),
			TransferType:  tt.kind,
		}))
	}

	tips, total, err := m.ListTransfers(ctx, ledger.TransferFilter{TransferType: domain.TransferTip})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, tips, 2)

	// Newest first
	all, _, err := m.ListTransfers(ctx, ledger.TransferFilter{AccountID: alice})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].Amount)

	paged, total, err := m.ListTransfers(ctx, ledger.TransferFilter{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, paged, 1)
	assert.Equal(t, int64(2), paged[0].Amount)
}

func TestUpdateCashoutFields(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	request := &domain.CashoutRequest{
		ID:        uuid.New().String(),
		AccountID: uuid.New().String(),
		AmountUSD: decimal.NewFromInt(16),
		Status:    domain.CashoutPending,
	}
	require.NoError(t, m.InsertCashout(ctx, request))

	require.NoError(t, m.UpdateCashout(ctx, request.ID, map[string]any{"status": domain.CashoutApproved}))
	stored, err := m.Cashout(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CashoutApproved, stored.Status)
	assert.Nil(t, stored.ProcessedAt)

	err = m.UpdateCashout(ctx, "missing", map[string]any{"status": domain.CashoutPaid})
	assert.ErrorIs(t, err, domain.ErrCashoutNotFound)
}
