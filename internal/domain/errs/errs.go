// Package errs holds the error taxonomy shared by every bounded context.
// Domain packages wrap these kinds in their own prefixed sentinels so callers
// can match on either the precise error or its kind with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrCannotCancel      = errors.New("order cannot be cancelled")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrStorage           = errors.New("storage failure")
)

// Invalid builds an ErrInvalidInput carrying a field-level message.
func Invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Storage wraps an infrastructure failure so it is surfaced as ErrStorage.
// Errors already classified by the taxonomy pass through untouched.
func Storage(err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Classified reports whether err already belongs to one of the taxonomy kinds.
func Classified(err error) bool {
	for _, kind := range []error{
		ErrInvalidInput, ErrEmptyCart, ErrOutOfStock, ErrInvalidTransition,
		ErrCannotCancel, ErrNotFound, ErrForbidden, ErrStorage,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

// OutOfStockError names the product whose reservation failed.
type OutOfStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	label := e.ProductID
	if e.Name != "" {
		label = fmt.Sprintf("%s (%s)", e.Name, e.ProductID)
	}
	return fmt.Sprintf("out of stock: %s: requested %d, available %d", label, e.Requested, e.Available)
}

func (e *OutOfStockError) Is(target error) bool { return target == ErrOutOfStock }

// CannotCancelError is a business rejection, not a fault.
type CannotCancelError struct {
	OrderID string
	Status  string
	Reason  string
}

func (e *CannotCancelError) Error() string {
	return fmt.Sprintf("order %s cannot be cancelled: %s", e.OrderID, e.Reason)
}

func (e *CannotCancelError) Is(target error) bool { return target == ErrCannotCancel }
