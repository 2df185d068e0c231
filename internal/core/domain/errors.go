package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrInvalidInput       = errors.New("invalid input")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	ErrBookNotFound = errors.New("book not found")
	ErrBookExists   = errors.New("book with this name already exists")
	ErrIDMismatch   = errors.New("book ID mismatch")

	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrPurchaseInProgress  = errors.New("purchase with this idempotency key is in progress")

	// ErrStoreUnavailable marks transient persistence failures that are safe to retry.
	ErrStoreUnavailable = errors.New("store unavailable")
)
