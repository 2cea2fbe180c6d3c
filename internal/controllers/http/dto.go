package http

import "github.com/vhxmt/doantotnghiep-sub001/internal/domain"

type OrderItemRequest struct {
	ProductID uint64 `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type GuestContactRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type CreateOrderRequest struct {
	UserID        uint64               `json:"userId"`
	Guest         *GuestContactRequest `json:"guest"`
	Items         []OrderItemRequest   `json:"items" binding:"required,min=1,dive"`
	PaymentMethod string               `json:"paymentMethod" binding:"required,oneof=cod zalopay vnpay"`
	CouponCode    string               `json:"couponCode"`

	ShippingName    string `json:"shippingName" binding:"required"`
	ShippingPhone   string `json:"shippingPhone" binding:"required"`
	ShippingAddress string `json:"shippingAddress" binding:"required"`
	ShippingCity    string `json:"shippingCity"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type InitiatePaymentRequest struct {
	Gateway string `json:"gateway" binding:"required,oneof=zalopay vnpay"`
}

type InitiatePaymentResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

type PreviewCouponRequest struct {
	Code        string `json:"code" binding:"required"`
	OrderAmount int64  `json:"orderAmount" binding:"required,min=0"`
}

type PreviewCouponResponse struct {
	Code             string `json:"code"`
	Discount         int64  `json:"discount"`
	ShippingDiscount int64  `json:"shippingDiscount"`
}

func toDiscountResponse(code string, d domain.Discount) PreviewCouponResponse {
	return PreviewCouponResponse{
		Code:             domain.NormalizeCouponCode(code),
		Discount:         d.Amount,
		ShippingDiscount: d.ShippingDiscount,
	}
}
