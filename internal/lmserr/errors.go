// Package lmserr defines the error taxonomy of the loan engine. Handlers
// match these with errors.As to pick a status code; services return them
// before any state is mutated.
package lmserr

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidationError reports malformed or out-of-range input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an absent entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AccessDeniedError reports that the actor lacks ownership or role.
type AccessDeniedError struct {
	Msg string
}

func (e *AccessDeniedError) Error() string { return e.Msg }

// AccessDenied builds an AccessDeniedError.
func AccessDenied(msg string) *AccessDeniedError {
	return &AccessDeniedError{Msg: msg}
}

// InvalidStateError reports a transition attempted from a state that
// forbids it, such as approving a decided loan or paying a loan with no
// pending installment.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// InvalidStatef builds an InvalidStateError.
func InvalidStatef(format string, args ...any) *InvalidStateError {
	return &InvalidStateError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError reports a lost race to mutate the same loan; callers
// should retry.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// Conflict builds a ConflictError.
func Conflict(msg string) *ConflictError {
	return &ConflictError{Msg: msg}
}

// OverpaymentError reports a payment above the allowed ceiling for the
// installment it would settle.
type OverpaymentError struct {
	Max decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment exceeds maximum allowed (%s)", e.Max.StringFixed(2))
}

// Overpayment builds an OverpaymentError.
func Overpayment(max decimal.Decimal) *OverpaymentError {
	return &OverpaymentError{Max: max}
}
