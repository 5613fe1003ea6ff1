package service

import (
	"errors"
	"fmt"

	"console_rental/internal/repository"
)

// Errors returned by the rental operations. Handlers map them to status codes.
var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrActuatorFailure   = errors.New("actuator failure")
	ErrDeviceBusy        = errors.New("device busy")
)

// InsufficientFundsError carries the balance detail of a rejected debit.
type InsufficientFundsError struct {
	MemberID string
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("member %s: insufficient funds: balance %d, required %d", e.MemberID, e.Balance, e.Required)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

// Shortfall is the amount the member is missing.
func (e *InsufficientFundsError) Shortfall() int64 {
	if e.Required <= e.Balance {
		return 0
	}
	return e.Required - e.Balance
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// fromRepo translates repository sentinels into service errors and keeps the
// original error in the chain.
func fromRepo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, repository.ErrStaleWrite):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	default:
		return err
	}
}
