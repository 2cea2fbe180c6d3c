package domain

import "time"

// Routing keys for order lifecycle events.
const (
	EventOrderCreated     = "order.created"
	EventOrderCancelled   = "order.cancelled"
	EventPaymentConfirmed = "order.payment_confirmed"
)

type OrderCreatedEvent struct {
	OrderID     uint64    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uint64    `json:"userId"`
	TotalAmount int64     `json:"totalAmount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"createdAt"`
}

type OrderCancelledEvent struct {
	OrderID     uint64    `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelledAt"`
}

type PaymentConfirmedEvent struct {
	OrderID       uint64    `json:"orderId"`
	OrderNumber   string    `json:"orderNumber"`
	Gateway       string    `json:"gateway"`
	TransactionID string    `json:"transactionId"`
	Amount        int64     `json:"amount"`
	PaidAt        time.Time `json:"paidAt"`
}
