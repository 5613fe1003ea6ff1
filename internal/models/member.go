package models

import "time"

// Member is a registered customer with a prepaid deposit.
type Member struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Deposit int64  `json:"deposit" db:"deposit"`
	PinHash string `json:"-" db:"pin_hash"`
}

// WalletChange is the balance snapshot around a single debit or credit.
type WalletChange struct {
	PreviousBalance int64 `json:"previous_balance"`
	NewBalance      int64 `json:"new_balance"`
}

// WalletTransaction is the persisted audit row of a wallet mutation.
type WalletTransaction struct {
	ID            string    `json:"id" db:"id"`
	MemberID      string    `json:"member_id" db:"member_id"`
	SessionID     *string   `json:"session_id,omitempty" db:"session_id"`
	Amount        int64     `json:"amount" db:"amount"` // negative for debits
	BalanceBefore int64     `json:"balance_before" db:"balance_before"`
	BalanceAfter  int64     `json:"balance_after" db:"balance_after"`
	Kind          string    `json:"kind" db:"kind"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
