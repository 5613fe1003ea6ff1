package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"console_rental/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type WalletSQLite struct {
	db sqlx.ExtContext
}

func NewWalletSQLite(db sqlx.ExtContext) *WalletSQLite {
	return &WalletSQLite{db: db}
}

var _ WalletRepo = (*WalletSQLite)(nil)

const (
	walletKindDebit  = "debit"
	walletKindCredit = "credit"

	selectMemberSQL = `SELECT id, name, deposit, pin_hash FROM members WHERE id = ?`

	// The deposit guard turns a concurrent change between read and write into a no-op update.
	updateDepositSQL = `UPDATE members SET deposit = ? WHERE id = ? AND deposit = ?`

	insertWalletTxSQL = `
		INSERT INTO wallet_transactions (id, member_id, session_id, amount, balance_before, balance_after, kind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
)

func (r *WalletSQLite) GetMember(ctx context.Context, id string) (models.Member, error) {
	var m models.Member
	if err := sqlx.GetContext(ctx, r.db, &m, selectMemberSQL, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Member{}, fmt.Errorf("member %q: %w", id, ErrNotFound)
		}
		return models.Member{}, fmt.Errorf("select member %q: %w", id, err)
	}
	return m, nil
}

// Debit subtracts amount from the member deposit. The returned change carries the
// current balance even when the debit is rejected with ErrInsufficientBalance.
func (r *WalletSQLite) Debit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	if amount < 0 {
		return models.WalletChange{}, fmt.Errorf("debit member %q: negative amount %d", memberID, amount)
	}
	return r.apply(ctx, memberID, -amount, sessionID, walletKindDebit)
}

func (r *WalletSQLite) Credit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error) {
	if amount < 0 {
		return models.WalletChange{}, fmt.Errorf("credit member %q: negative amount %d", memberID, amount)
	}
	return r.apply(ctx, memberID, amount, sessionID, walletKindCredit)
}

func (r *WalletSQLite) apply(ctx context.Context, memberID string, delta int64, sessionID, kind string) (models.WalletChange, error) {
	m, err := r.GetMember(ctx, memberID)
	if err != nil {
		return models.WalletChange{}, err
	}

	change := models.WalletChange{PreviousBalance: m.Deposit, NewBalance: m.Deposit + delta}
	if change.NewBalance < 0 {
		return models.WalletChange{PreviousBalance: m.Deposit, NewBalance: m.Deposit}, ErrInsufficientBalance
	}

	res, err := r.db.ExecContext(ctx, updateDepositSQL, change.NewBalance, memberID, m.Deposit)
	if err != nil {
		return models.WalletChange{}, fmt.Errorf("update deposit of member %q: %w", memberID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.WalletChange{}, fmt.Errorf("update deposit of member %q: rows affected: %w", memberID, err)
	}
	if n == 0 {
		return models.WalletChange{}, fmt.Errorf("member %q: %w", memberID, ErrStaleWrite)
	}

	var sid *string
	if sessionID != "" {
		sid = &sessionID
	}
	if _, err := r.db.ExecContext(ctx, insertWalletTxSQL,
		uuid.NewString(),
		memberID,
		sid,
		delta,
		change.PreviousBalance,
		change.NewBalance,
		kind,
		time.Now().UTC(),
	); err != nil {
		return models.WalletChange{}, fmt.Errorf("insert wallet transaction for member %q: %w", memberID, err)
	}

	return change, nil
}
