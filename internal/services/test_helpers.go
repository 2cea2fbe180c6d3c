package services

import (
	"time"

	"go.uber.org/zap"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	"github.com/vhxmt/doantotnghiep-sub001/internal/mocks"
)

var testTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

var testPricing = config.PricingConfig{
	ShippingFlatFee:       30000,
	FreeShippingThreshold: 500000,
	TaxRateBps:            0,
}

func newTestOrderService(store *mocks.TxRunner, pub *mocks.MockPublisher) *OrderService {
	s := NewOrderService(store, pub, testPricing, zap.NewNop())
	s.now = func() time.Time { return testTime }
	return s
}

func pendingOrder(id uint64, total int64) *domain.Order {
	return &domain.Order{
		ID:            id,
		OrderNumber:   "SHP-250615-TEST0001",
		UserID:        7,
		Status:        domain.StatusPending,
		PaymentStatus: domain.PaymentUnpaid,
		PaymentMethod: domain.PaymentMethodZaloPay,
		Subtotal:      total,
		TotalAmount:   total,
		Currency:      "VND",
		Items: []domain.OrderItem{
			{ProductID: 1, ProductName: "p1", Quantity: 2, UnitPrice: total / 2, TotalPrice: total},
		},
		CreatedAt: testTime,
	}
}

func activeProduct(id uint64, price int64) domain.Product {
	return domain.Product{ID: id, Name: "product", Price: price, Status: domain.ProductActive}
}
