package domain

import (
	"strings"
	"time"
)

type CouponType string

const (
	CouponPercentage   CouponType = "percentage"
	CouponFixedAmount  CouponType = "fixed_amount"
	CouponFreeShipping CouponType = "free_shipping"
)

type CouponStatus string

const (
	CouponActive   CouponStatus = "active"
	CouponInactive CouponStatus = "inactive"
)

type Coupon struct {
	ID                    uint64       `json:"id" gorm:"primaryKey;autoIncrement"`
	Code                  string       `json:"code" gorm:"size:32;uniqueIndex;not null"`
	Type                  CouponType   `json:"type" gorm:"size:16;not null"`
	Value                 int64        `json:"value" gorm:"not null"`
	MinimumOrderAmount    int64        `json:"minimumOrderAmount" gorm:"not null;default:0"`
	MaximumDiscountAmount int64        `json:"maximumDiscountAmount" gorm:"not null;default:0"`
	UsageLimit            int          `json:"usageLimit" gorm:"not null;default:0"`
	UsageLimitPerUser     int          `json:"usageLimitPerUser" gorm:"not null;default:0"`
	UsedCount             int          `json:"usedCount" gorm:"not null;default:0"`
	StartsAt              *time.Time   `json:"startsAt,omitempty"`
	ExpiresAt             *time.Time   `json:"expiresAt,omitempty"`
	Status                CouponStatus `json:"status" gorm:"size:16;not null;default:'active'"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Coupon) TableName() string { return "coupons" }

// NormalizeCouponCode uppercases a code for lookup and storage so coupon
// matching is case-insensitive.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the coupon against its activation window and usage cap.
// It is side-effect free and safe to repeat; the usage increment happens
// separately inside the order transaction.
func (c *Coupon) Validate(now time.Time) error {
	if c.Status != CouponActive {
		return &CouponRejectedError{Code: c.Code, Reason: CouponReasonInactive}
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return &CouponRejectedError{Code: c.Code, Reason: CouponReasonNotStarted}
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return &CouponRejectedError{Code: c.Code, Reason: CouponReasonExpired}
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return &CouponRejectedError{Code: c.Code, Reason: CouponReasonExhausted}
	}
	return nil
}

// Discount is the outcome of applying a coupon to an order amount.
type Discount struct {
	Amount           int64 `json:"amount"`
	ShippingDiscount int64 `json:"shippingDiscount"`
}

// ComputeDiscount computes the discount for an order subtotal and shipping
// fee. The order-amount discount never exceeds the order amount itself.
func (c *Coupon) ComputeDiscount(orderAmount, shippingAmount int64) (Discount, error) {
	if orderAmount < c.MinimumOrderAmount {
		return Discount{}, &CouponRejectedError{Code: c.Code, Reason: CouponReasonMinimumNotMet}
	}

	var d Discount
	switch c.Type {
	case CouponPercentage:
		d.Amount = orderAmount * c.Value / 100
		if c.MaximumDiscountAmount > 0 && d.Amount > c.MaximumDiscountAmount {
			d.Amount = c.MaximumDiscountAmount
		}
	case CouponFixedAmount:
		d.Amount = c.Value
	case CouponFreeShipping:
		d.ShippingDiscount = shippingAmount
	default:
		return Discount{}, &CouponRejectedError{Code: c.Code, Reason: CouponReasonInactive}
	}

	if d.Amount > orderAmount {
		d.Amount = orderAmount
	}
	return d, nil
}
