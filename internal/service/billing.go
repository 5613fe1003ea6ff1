package service

import (
	"context"
	"errors"
	"time"

	"console_rental/internal/logger"
	"console_rental/internal/metrics"
	"console_rental/internal/models"
	"console_rental/internal/repository"

	"github.com/google/uuid"
)

const sideEffectTimeout = 5 * time.Second

// Billing adapts the wallet and payment ledger to the session engine.
// Wallet calls take the repository bound to the caller's transaction.
type Billing struct {
	payments repository.PaymentRepo
	clock    Clock
	log      *logger.Logger
}

func NewBilling(payments repository.PaymentRepo, clock Clock, log *logger.Logger) *Billing {
	return &Billing{payments: payments, clock: clock, log: logger.OrNop(log)}
}

// Debit charges a member deposit. A rejected debit is reported as *InsufficientFundsError.
func (b *Billing) Debit(ctx context.Context, wallets repository.WalletRepo, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	change, err := wallets.Debit(ctx, memberID, amount, sessionID)
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return models.WalletChange{}, &InsufficientFundsError{
			MemberID: memberID,
			Balance:  change.PreviousBalance,
			Required: amount,
		}
	}
	if err != nil {
		return models.WalletChange{}, fromRepo(err)
	}
	return change, nil
}

func (b *Billing) Credit(ctx context.Context, wallets repository.WalletRepo, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	change, err := wallets.Credit(ctx, memberID, amount, sessionID)
	if err != nil {
		return models.WalletChange{}, fromRepo(err)
	}
	return change, nil
}

// RecordPayment writes a counter payment. It is best-effort: failures are
// logged and counted, and the caller carries on.
func (b *Billing) RecordPayment(ctx context.Context, p models.Payment) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = b.clock.Now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()

	if err := b.payments.Record(ctx, p); err != nil {
		metrics.RecordPaymentFailure(string(p.Type))
		b.log.Errorw("payment_record_failed",
			"payment_id", p.ID,
			"session_id", p.SessionID,
			"type", p.Type,
			"amount", p.Amount,
			"error", err,
		)
	}
}
