package services

import (
	"errors"
	"fmt"

	"werkstatt-backend/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound covers both missing rows and rows of another tenant.
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = models.ErrInvalidTransition
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrOverPayment        = errors.New("payment exceeds amount due")
	ErrValidation         = errors.New("validation failed")
)

func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

func preconditionf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPreconditionFailed, fmt.Sprintf(format, args...))
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// OverPaymentError carries the largest amount that would still have been accepted.
type OverPaymentError struct {
	Attempted decimal.Decimal
	AmountDue decimal.Decimal
}

func (e *OverPaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds amount due %s", e.Attempted.StringFixed(2), e.AmountDue.StringFixed(2))
}

func (e *OverPaymentError) Is(target error) bool { return target == ErrOverPayment }
