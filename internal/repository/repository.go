package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"console_rental/internal/models"

	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientBalance is returned when a debit would make a deposit negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrStaleWrite is returned when a guarded update matched no row because the
	// row changed after it was read.
	ErrStaleWrite = errors.New("row changed concurrently")
)

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// DeviceRepo persists devices and their timer fields.
type DeviceRepo interface {
	Get(ctx context.Context, id string) (models.Device, error)
	List(ctx context.Context) ([]models.Device, error)
	ListByStatus(ctx context.Context, status models.TimerStatus) ([]models.Device, error)
	Save(ctx context.Context, d models.Device) error
}

type SessionRepo interface {
	Create(ctx context.Context, s models.Session) error
	Update(ctx context.Context, s models.Session) error
	Get(ctx context.Context, id string) (models.Session, error)
	// ActiveForDevice returns ErrNotFound when the device has no active session.
	ActiveForDevice(ctx context.Context, deviceID string) (models.Session, error)
}

// EventRepo is the append-only activity ledger.
type EventRepo interface {
	Append(ctx context.Context, e models.ActivityEvent) error
	ListBySession(ctx context.Context, sessionID string) ([]models.ActivityEvent, error)
	List(ctx context.Context, f EventFilter) ([]models.ActivityEvent, error)
}

// EventFilter narrows ledger queries. Zero values mean no bound.
type EventFilter struct {
	From     time.Time
	To       time.Time
	Type     string
	DeviceID string
}

type CategoryRepo interface {
	Get(ctx context.Context, id string) (models.RateCategory, error)
}

// WalletRepo mutates member deposits. Debit and Credit record an audit row
// with the balances before and after.
type WalletRepo interface {
	GetMember(ctx context.Context, id string) (models.Member, error)
	Debit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error)
	Credit(ctx context.Context, memberID string, amount int64, sessionID string) (models.WalletChange, error)
}

type PaymentRepo interface {
	Record(ctx context.Context, p models.Payment) error
}

// Transactor runs fn against repositories bound to one database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

type Repository struct {
	Devices    DeviceRepo
	Sessions   SessionRepo
	Events     EventRepo
	Categories CategoryRepo
	Wallets    WalletRepo
	Payments   PaymentRepo
	Auth       Authorization
	Tx         Transactor
}

// NewRepository builds repositories on top of db. Tx opens transactions on the same pool.
func NewRepository(db *sqlx.DB) *Repository {
	r := bind(db)
	r.Tx = &sqlxTransactor{db: db}
	return r
}

func bind(ext sqlx.ExtContext) *Repository {
	return &Repository{
		Devices:    NewDeviceSQLite(ext),
		Sessions:   NewSessionSQLite(ext),
		Events:     NewEventSQLite(ext),
		Categories: NewCategorySQLite(ext),
		Wallets:    NewWalletSQLite(ext),
		Payments:   NewPaymentSQLite(ext),
		Auth:       NewUserRepository(ext),
	}
}

type sqlxTransactor struct {
	db *sqlx.DB
}

func (t *sqlxTransactor) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	repos := bind(tx)
	repos.Tx = joinedTx{repos: repos}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// joinedTx lets code that already holds a transaction call WithinTx again
// without opening a nested one.
type joinedTx struct {
	repos *Repository
}

func (j joinedTx) WithinTx(_ context.Context, fn func(tx *Repository) error) error {
	return fn(j.repos)
}

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
