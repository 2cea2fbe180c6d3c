package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrUserNotFound    = errors.New("user not found")
)

// InsufficientStockError aborts the whole order transaction and identifies the
// offending product and shortfall.
type InsufficientStockError struct {
	ProductID uint64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Coupon rejection reasons, in validation priority order.
const (
	CouponReasonNotFound      = "not_found"
	CouponReasonInactive      = "inactive"
	CouponReasonNotStarted    = "not_started"
	CouponReasonExpired       = "expired"
	CouponReasonExhausted     = "usage_limit_reached"
	CouponReasonMinimumNotMet = "minimum_order_amount_not_met"
)

type CouponRejectedError struct {
	Code   string
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon %q rejected: %s", e.Code, e.Reason)
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// AmountMismatchError guards against a replayed or substituted callback
// carrying a different amount than the order total.
type AmountMismatchError struct {
	OrderNumber string
	Expected    int64
	Got         int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch for order %s: expected %d, got %d",
		e.OrderNumber, e.Expected, e.Got)
}

type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}
