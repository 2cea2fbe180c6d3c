package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCouponValidate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		coupon Coupon
		reason string
	}{
		{
			name:   "active coupon with no window passes",
			coupon: Coupon{Code: "SALE10", Status: CouponActive},
		},
		{
			name:   "inactive status",
			coupon: Coupon{Code: "SALE10", Status: CouponInactive},
			reason: CouponReasonInactive,
		},
		{
			name: "not started yet",
			coupon: Coupon{Code: "SALE10", Status: CouponActive,
				StartsAt: timePtr(now.Add(time.Hour))},
			reason: CouponReasonNotStarted,
		},
		{
			name: "expired",
			coupon: Coupon{Code: "SALE10", Status: CouponActive,
				ExpiresAt: timePtr(now.Add(-time.Hour))},
			reason: CouponReasonExpired,
		},
		{
			name: "usage limit reached",
			coupon: Coupon{Code: "SALE10", Status: CouponActive,
				UsageLimit: 5, UsedCount: 5},
			reason: CouponReasonExhausted,
		},
		{
			name: "zero usage limit means unlimited",
			coupon: Coupon{Code: "SALE10", Status: CouponActive,
				UsageLimit: 0, UsedCount: 1000},
		},
		{
			name: "inactive wins over expired",
			coupon: Coupon{Code: "SALE10", Status: CouponInactive,
				ExpiresAt: timePtr(now.Add(-time.Hour))},
			reason: CouponReasonInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.Validate(now)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var rejected *CouponRejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.reason, rejected.Reason)
		})
	}
}

func TestCouponComputeDiscount(t *testing.T) {
	tests := []struct {
		name             string
		coupon           Coupon
		orderAmount      int64
		shippingAmount   int64
		wantDiscount     int64
		wantShippingDisc int64
		wantReason       string
	}{
		{
			name:         "percentage",
			coupon:       Coupon{Type: CouponPercentage, Value: 10},
			orderAmount:  200000,
			wantDiscount: 20000,
		},
		{
			name:         "percentage capped at maximum",
			coupon:       Coupon{Type: CouponPercentage, Value: 50, MaximumDiscountAmount: 30000},
			orderAmount:  200000,
			wantDiscount: 30000,
		},
		{
			name:         "fixed amount",
			coupon:       Coupon{Type: CouponFixedAmount, Value: 50000},
			orderAmount:  200000,
			wantDiscount: 50000,
		},
		{
			name:         "fixed amount clamped to order amount",
			coupon:       Coupon{Type: CouponFixedAmount, Value: 500000},
			orderAmount:  200000,
			wantDiscount: 200000,
		},
		{
			name:             "free shipping discounts shipping only",
			coupon:           Coupon{Type: CouponFreeShipping},
			orderAmount:      200000,
			shippingAmount:   30000,
			wantShippingDisc: 30000,
		},
		{
			name:        "minimum order amount not met",
			coupon:      Coupon{Type: CouponPercentage, Value: 10, MinimumOrderAmount: 300000},
			orderAmount: 200000,
			wantReason:  CouponReasonMinimumNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.coupon.ComputeDiscount(tt.orderAmount, tt.shippingAmount)
			if tt.wantReason != "" {
				var rejected *CouponRejectedError
				require.ErrorAs(t, err, &rejected)
				assert.Equal(t, tt.wantReason, rejected.Reason)
				assert.Zero(t, d.Amount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDiscount, d.Amount)
			assert.Equal(t, tt.wantShippingDisc, d.ShippingDiscount)
		})
	}
}

func TestNormalizeCouponCode(t *testing.T) {
	assert.Equal(t, "SALE10", NormalizeCouponCode(" sale10 "))
	assert.Equal(t, "SALE10", NormalizeCouponCode("Sale10"))
}
