package ledger

import (
	"context"
	"fmt"
	"time"

	"finfeathers_tokens/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// CashoutResult is returned by RequestCashout
type CashoutResult struct {
	Request           *domain.CashoutRequest `json:"request"`
	PayoutAmount      decimal.Decimal        `json:"payout_amount"`
	NewCashoutBalance decimal.Decimal        `json:"new_cashout_balance"`
}

// PersonalTransferResult is returned by TransferToPersonal
type PersonalTransferResult struct {
	TokensAdded       int64           `json:"tokens_added"`
	NewTokenBalance   int64           `json:"new_token_balance"`
	NewCashoutBalance decimal.Decimal `json:"new_cashout_balance"`
}

// RequestCashout creates a pending payout request for a staff account.
// The $20 minimum is checked against the balance before the request, not the
// requested amount. The gross token value leaves the cashout balance now;
// the stored amount_usd is the payout after the 20% platform fee, and
// total_earnings grows by that payout. Admin processing later only tracks the
// external payout, with no further balance effect.
func (s *Service) RequestCashout(ctx context.Context, userID string, amountTokens int64, paymentMethod, paymentDetails string) (*CashoutResult, error) {
	if amountTokens < 1 {
		return nil, domain.ErrInvalidAmount
	}

	result := &CashoutResult{}
	err := s.store.WithTx(ctx, func(tx Store) error {
		account, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if account.Role != domain.RoleStaff {
			return domain.ErrForbidden
		}
		if account.CashoutBalance.LessThan(cashoutMinimum) {
			return domain.ErrMinimumNotMet
		}
		gross := TokensToUSD(amountTokens)
		if err := tx.DebitCashout(ctx, userID, gross); err != nil {
			return err
		}
		payout := gross.Mul(cashoutRate)
		if err := tx.CreditEarnings(ctx, userID, payout); err != nil {
			return err
		}
		result.Request = &domain.CashoutRequest{
			ID:             uuid.New().String(),
			AccountID:      userID,
			AmountTokens:   amountTokens,
			AmountUSD:      payout,
			Status:         domain.CashoutPending,
			PaymentMethod:  paymentMethod,
			PaymentDetails: paymentDetails,
			CreatedAt:      time.Now(),
		}
		result.PayoutAmount = payout
		result.NewCashoutBalance = account.CashoutBalance.Sub(gross)
		return tx.InsertCashout(ctx, result.Request)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"amount_tokens": amountTokens,
		"payout_usd":    result.PayoutAmount,
		"method":        paymentMethod,
	}).Info("Cashout requested")
	return result, nil
}

// TransferToPersonal converts part of a staff cashout balance directly to
// tokens at the full 10:1 rate, bypassing the cashout fee and minimum.
func (s *Service) TransferToPersonal(ctx context.Context, userID string, amountUSD decimal.Decimal) (*PersonalTransferResult, error) {
	if amountUSD.LessThan(minPurchaseUSD) {
		return nil, domain.ErrInvalidAmount
	}

	tokens := USDToTokens(amountUSD)
	result := &PersonalTransferResult{}
	err := s.store.WithTx(ctx, func(tx Store) error {
		account, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if account.Role != domain.RoleStaff {
			return domain.ErrForbidden
		}
		if err := tx.DebitCashout(ctx, userID, amountUSD); err != nil {
			return err
		}
		if err := tx.CreditTokens(ctx, userID, tokens); err != nil {
			return err
		}
		result.TokensAdded = tokens
		result.NewTokenBalance = account.TokenBalance + tokens
		result.NewCashoutBalance = account.CashoutBalance.Sub(amountUSD)
		return tx.AppendTransfer(ctx, &domain.TransferRecord{
			ID:            uuid.New().String(),
			FromAccountID: userID,
			ToAccountID:   userID,
			Amount:        tokens,
			TransferType:  domain.TransferTipToPersonal,
			CreatedAt:     time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"amount_usd": amountUSD,
		"tokens":     tokens,
	}).Info("Cashout balance converted to tokens")
	return result, nil
}

// ProcessCashout sets the status of a cashout request. Balances were already
// adjusted when the request was created; this only tracks the external payout
// workflow. Transitions between approved, paid and rejected are not
// constrained, matching how admins actually correct mis-clicks in practice.
func (s *Service) ProcessCashout(ctx context.Context, actorID, cashoutID, status string) (*domain.CashoutRequest, error) {
	if !domain.ValidCashoutStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	actor, err := s.store.Account(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}
	if actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	var request *domain.CashoutRequest
	err = s.store.WithTx(ctx, func(tx Store) error {
		request, err = tx.Cashout(ctx, cashoutID)
		if err != nil {
			return err
		}
		now := time.Now()
		if err := tx.UpdateCashout(ctx, cashoutID, map[string]any{
			"status":       status,
			"processed_at": &now,
		}); err != nil {
			return err
		}
		request.Status = status
		request.ProcessedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"cashout_id": cashoutID,
		"status":     status,
		"admin":      actorID,
	}).Info("Cashout processed")
	return request, nil
}
