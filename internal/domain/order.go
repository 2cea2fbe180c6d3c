package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPacking   OrderStatus = "packing"
	StatusShipping  OrderStatus = "shipping"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
	StatusReturned  OrderStatus = "returned"
)

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type PaymentMethod string

const (
	PaymentMethodCOD     PaymentMethod = "cod"
	PaymentMethodZaloPay PaymentMethod = "zalopay"
	PaymentMethodVNPay   PaymentMethod = "vnpay"
)

var validStatusNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
	StatusConfirmed: {StatusPacking: true, StatusCancelled: true},
	StatusPacking:   {StatusShipping: true},
	StatusShipping:  {StatusDelivered: true},
	StatusDelivered: {StatusReturned: true},
	StatusCancelled: {},
	StatusReturned:  {},
}

var validPaymentNext = map[PaymentStatus]map[PaymentStatus]bool{
	PaymentUnpaid:   {PaymentPaid: true, PaymentFailed: true},
	PaymentPaid:     {PaymentRefunded: true},
	PaymentRefunded: {},
	PaymentFailed:   {},
}

func CanTransitionStatus(from, to OrderStatus) bool {
	return validStatusNext[from][to]
}

func CanTransitionPayment(from, to PaymentStatus) bool {
	return validPaymentNext[from][to]
}

type Order struct {
	ID                   uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderNumber          string        `json:"orderNumber" gorm:"size:32;uniqueIndex;not null"`
	UserID               uint64        `json:"userId" gorm:"not null;index"`
	Status               OrderStatus   `json:"status" gorm:"size:16;not null;default:'pending';index"`
	PaymentStatus        PaymentStatus `json:"paymentStatus" gorm:"size:16;not null;default:'unpaid';index"`
	PaymentMethod        PaymentMethod `json:"paymentMethod" gorm:"size:16;not null"`
	PaymentGateway       string        `json:"paymentGateway,omitempty" gorm:"size:16"`
	PaymentTransactionID string        `json:"paymentTransactionId,omitempty" gorm:"size:64;index"`
	PaidAt               *time.Time    `json:"paidAt,omitempty"`

	Subtotal       int64  `json:"subtotal" gorm:"not null"`
	DiscountAmount int64  `json:"discountAmount" gorm:"not null;default:0"`
	ShippingAmount int64  `json:"shippingAmount" gorm:"not null;default:0"`
	TaxAmount      int64  `json:"taxAmount" gorm:"not null;default:0"`
	TotalAmount    int64  `json:"totalAmount" gorm:"not null"`
	Currency       string `json:"currency" gorm:"size:8;not null;default:'VND'"`
	CouponID       uint64 `json:"couponId,omitempty" gorm:"default:0"`
	CouponCode     string `json:"couponCode,omitempty" gorm:"size:32"`

	ShippingName    string `json:"shippingName" gorm:"size:128"`
	ShippingPhone   string `json:"shippingPhone" gorm:"size:32"`
	ShippingAddress string `json:"shippingAddress" gorm:"size:255"`
	ShippingCity    string `json:"shippingCity" gorm:"size:64"`

	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty" gorm:"size:255"`
	DeliveredAt        *time.Time `json:"deliveredAt,omitempty"`

	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// Cancellable reports whether the order may still be cancelled with stock
// restitution.
func (o *Order) Cancellable() bool {
	return o.Status == StatusPending || o.Status == StatusConfirmed
}

// OrderItem snapshots the product name and unit price at order time. Later
// price changes on the product must never alter a placed order's totals.
type OrderItem struct {
	ID          uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID     uint64 `json:"orderId" gorm:"not null;index"`
	ProductID   uint64 `json:"productId" gorm:"not null;index"`
	ProductName string `json:"productName" gorm:"size:255;not null"`
	Quantity    int    `json:"quantity" gorm:"not null"`
	UnitPrice   int64  `json:"unitPrice" gorm:"not null"`
	TotalPrice  int64  `json:"totalPrice" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }
