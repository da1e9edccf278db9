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

// Service performs balance-affecting operations. Every operation runs as a
// single storage transaction: a debit and its paired credit are applied
// together or not at all.
type Service struct {
	store Store
}

// New creates a ledger service over the given store
func New(store Store) *Service {
	return &Service{store: store}
}

// TransferResult is returned by Transfer
type TransferResult struct {
	Record           *domain.TransferRecord `json:"transfer"`
	SenderNewBalance int64                  `json:"sender_new_balance"`
	RecipientName    string                 `json:"recipient_name"`
}

// Purchase credits floor(amountUSD * 10) tokens to the account and appends a
// purchase record. The currency is injected by the payment provider; there is
// no debit from any other account.
func (s *Service) Purchase(ctx context.Context, userID string, amountUSD decimal.Decimal, paymentMethod string) (*domain.TokenPurchase, int64, error) {
	if amountUSD.LessThan(minPurchaseUSD) {
		return nil, 0, domain.ErrInvalidAmount
	}
	if paymentMethod == "" {
		paymentMethod = "card"
	}

	tokens := USDToTokens(amountUSD)
	var purchase *domain.TokenPurchase
	var newBalance int64
	err := s.store.WithTx(ctx, func(tx Store) error {
		account, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.CreditTokens(ctx, userID, tokens); err != nil {
			return err
		}
		purchase = &domain.TokenPurchase{
			ID:              uuid.New().String(),
			AccountID:       userID,
			AmountUSD:       amountUSD,
			TokensPurchased: tokens,
			PaymentMethod:   paymentMethod,
			CreatedAt:       time.Now(),
		}
		newBalance = account.TokenBalance + tokens
		return tx.AppendPurchase(ctx, purchase)
	})
	if err != nil {
		return nil, 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"amount_usd": amountUSD,
		"tokens":     tokens,
		"method":     paymentMethod,
	}).Info("Token purchase")
	return purchase, newBalance, nil
}

// Transfer moves tokens from one account to another. The debit is conditional
// on sufficient balance at the storage layer; the credit lands per RouteCredit
// (tips to staff convert to cashout USD, everything else stays in tokens).
// The transfer record carries the caller's literal transfer type.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount int64, transferType, message string) (*TransferResult, error) {
	if amount < 1 {
		return nil, domain.ErrInvalidAmount
	}
	if transferType == "" {
		transferType = domain.TransferGeneric
	}

	result := &TransferResult{}
	err := s.store.WithTx(ctx, func(tx Store) error {
		sender, err := tx.Account(ctx, fromID)
		if err != nil {
			return fmt.Errorf("sender: %w", err)
		}
		receiver, err := tx.Account(ctx, toID)
		if err != nil {
			return fmt.Errorf("receiver: %w", err)
		}
		if err := tx.DebitTokens(ctx, fromID, amount); err != nil {
			return err
		}
		switch RouteCredit(receiver.Role, transferType) {
		case CreditToCashout:
			if err := tx.CreditCashout(ctx, toID, TokensToUSD(amount)); err != nil {
				return err
			}
		default:
			if err := tx.CreditTokens(ctx, toID, amount); err != nil {
				return err
			}
		}
		result.Record = &domain.TransferRecord{
			ID:            uuid.New().String(),
			FromAccountID: fromID,
			ToAccountID:   toID,
			Amount:        amount,
			TransferType:  transferType,
			Message:       message,
			CreatedAt:     time.Now(),
		}
		result.SenderNewBalance = sender.TokenBalance - amount
		result.RecipientName = receiver.Name
		return tx.AppendTransfer(ctx, result.Record)
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"from_user_id": fromID,
		"to_user_id":   toID,
		"amount":       amount,
		"type":         transferType,
	}).Info("Token transfer")
	return result, nil
}

// AdminGift credits tokens with no corresponding debit. The acting account
// must hold the admin role; the check lives here as well as in the HTTP
// middleware so the ledger never trusts its caller. Gifts are recorded as
// purchase-history entries with payment method "gift" and the admin's name.
func (s *Service) AdminGift(ctx context.Context, actorID, userID string, tokens int64, message string) (*domain.TokenPurchase, int64, error) {
	if tokens < 1 {
		return nil, 0, domain.ErrInvalidAmount
	}
	actor, err := s.store.Account(ctx, actorID)
	if err != nil {
		return nil, 0, fmt.Errorf("actor: %w", err)
	}
	if actor.Role != domain.RoleAdmin {
		return nil, 0, domain.ErrForbidden
	}

	giftedBy := actor.Name
	if actor.Username != nil {
		giftedBy = *actor.Username
	}
	var gift *domain.TokenPurchase
	var newBalance int64
	err = s.store.WithTx(ctx, func(tx Store) error {
		account, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.CreditTokens(ctx, userID, tokens); err != nil {
			return err
		}
		gift = &domain.TokenPurchase{
			ID:              uuid.New().String(),
			AccountID:       userID,
			AmountUSD:       TokensToUSD(tokens),
			TokensPurchased: tokens,
			PaymentMethod:   "gift",
			GiftedBy:        giftedBy,
			Message:         message,
			CreatedAt:       time.Now(),
		}
		newBalance = account.TokenBalance + tokens
		return tx.AppendPurchase(ctx, gift)
	})
	if err != nil {
		return nil, 0, err
	}

	logrus.WithFields(logrus.Fields{
		"admin":   giftedBy,
		"user_id": userID,
		"tokens":  tokens,
	}).Info("Admin token gift")
	return gift, newBalance, nil
}

// SpendTokens debits tokens with no credit elsewhere, for redemptions paid out
// physically (a drink at the bar). Appends a self-referencing transfer record
// so the redemption shows in the account history.
func (s *Service) SpendTokens(ctx context.Context, userID string, amount int64, transferType, message string) (int64, error) {
	if amount < 1 {
		return 0, domain.ErrInvalidAmount
	}
	if transferType == "" {
		transferType = domain.TransferDrink
	}

	var newBalance int64
	err := s.store.WithTx(ctx, func(tx Store) error {
		account, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if err := tx.DebitTokens(ctx, userID, amount); err != nil {
			return err
		}
		newBalance = account.TokenBalance - amount
		return tx.AppendTransfer(ctx, &domain.TransferRecord{
			ID:            uuid.New().String(),
			FromAccountID: userID,
			ToAccountID:   userID,
			Amount:        amount,
			TransferType:  transferType,
			Message:       message,
			CreatedAt:     time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"amount":  amount,
		"type":    transferType,
	}).Info("Tokens spent")
	return newBalance, nil
}

// CreateCheckout opens a pending payment transaction for a token package.
// The provider redirects the customer; tokens are credited only when the
// provider notifies ConfirmCheckout.
func (s *Service) CreateCheckout(ctx context.Context, userID, packageID string) (*domain.PaymentTransaction, error) {
	pkg, ok := Packages[packageID]
	if !ok {
		return nil, domain.ErrUnknownPackage
	}
	if _, err := s.store.Account(ctx, userID); err != nil {
		return nil, err
	}

	payment := &domain.PaymentTransaction{
		ID:        uuid.New().String(),
		SessionID: "cs_" + uuid.New().String(),
		AccountID: userID,
		PackageID: packageID,
		AmountUSD: pkg.Amount,
		Tokens:    pkg.Tokens,
		Status:    domain.PaymentPending,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertPayment(ctx, payment); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":    userID,
		"package_id": packageID,
		"session_id": payment.SessionID,
	}).Info("Checkout session created")
	return payment, nil
}

// ConfirmCheckout credits the tokens for a completed checkout session. It is
// idempotent against duplicate provider notifications: only the call that
// flips the session from pending to completed credits the account; every
// later call is a no-op returning the already-completed transaction.
func (s *Service) ConfirmCheckout(ctx context.Context, sessionID string) (*domain.PaymentTransaction, bool, error) {
	var payment *domain.PaymentTransaction
	credited := false
	err := s.store.WithTx(ctx, func(tx Store) error {
		var err error
		payment, err = tx.PaymentBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		if payment.Status == domain.PaymentCompleted {
			return nil
		}
		won, err := tx.CompletePayment(ctx, sessionID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		credited = true
		if err := tx.CreditTokens(ctx, payment.AccountID, payment.Tokens); err != nil {
			return err
		}
		return tx.AppendPurchase(ctx, &domain.TokenPurchase{
			ID:              uuid.New().String(),
			AccountID:       payment.AccountID,
			AmountUSD:       payment.AmountUSD,
			TokensPurchased: payment.Tokens,
			PaymentMethod:   "stripe",
			CreatedAt:       time.Now(),
		})
	})
	if err != nil {
		return nil, false, err
	}

	if credited {
		logrus.WithFields(logrus.Fields{
			"session_id": sessionID,
			"user_id":    payment.AccountID,
			"tokens":     payment.Tokens,
		}).Info("Checkout session credited")
	}
	return payment, credited, nil
}
