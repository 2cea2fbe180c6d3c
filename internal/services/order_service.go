package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	rabbit "github.com/vhxmt/doantotnghiep-sub001/internal/infra/rabbitmq"
	"github.com/vhxmt/doantotnghiep-sub001/internal/repository"
)

const orderNumberRetries = 3

type OrderService struct {
	store     repository.TxRunner
	publisher rabbit.PublisherInterface
	pricing   config.PricingConfig
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(store repository.TxRunner, pub rabbit.PublisherInterface, pricing config.PricingConfig, logger *zap.Logger) *OrderService {
	return &OrderService{
		store:     store,
		publisher: pub,
		pricing:   pricing,
		logger:    logger,
		now:       time.Now,
	}
}

type OrderItemInput struct {
	ProductID uint64
	Quantity  int
}

type GuestContact struct {
	Email string
	Name  string
	Phone string
}

type CreateOrderInput struct {
	UserID        uint64
	Guest         *GuestContact
	Items         []OrderItemInput
	PaymentMethod domain.PaymentMethod
	CouponCode    string

	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
	ShippingCity    string
}

// CreateOrder runs the whole checkout inside one transaction: product and
// stock checks, per-line reservation, coupon application with its atomic
// usage increment, total computation and persistence. Nothing is observable
// until commit; any failure rolls the whole attempt back.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	lines, err := mergeLines(input.Items)
	if err != nil {
		return nil, err
	}
	if input.PaymentMethod == "" {
		return nil, &domain.ValidationError{Field: "paymentMethod", Detail: "required"}
	}
	if input.UserID == 0 && input.Guest == nil {
		return nil, &domain.ValidationError{Field: "userId", Detail: "authenticated user or guest contact required"}
	}

	var order *domain.Order
	err = s.store.InTx(ctx, func(r repository.Repositories) error {
		userID := input.UserID
		if userID == 0 {
			guest, err := r.Users().FindOrCreateGuest(ctx, input.Guest.Email, input.Guest.Name, input.Guest.Phone)
			if err != nil {
				return err
			}
			userID = guest.ID
		} else if _, err := r.Users().FindByID(ctx, userID); err != nil {
			return err
		}

		ids := make([]uint64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		products, err := r.Products().FindActiveByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uint64]domain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		var subtotal int64
		items := make([]domain.OrderItem, 0, len(lines))
		for _, l := range lines {
			p, ok := byID[l.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", l.ProductID, domain.ErrProductNotFound)
			}
			if err := r.Inventory().Reserve(ctx, p.ID, l.Quantity); err != nil {
				return err
			}
			lineTotal := p.Price * int64(l.Quantity)
			subtotal += lineTotal
			items = append(items, domain.OrderItem{
				ProductID:   p.ID,
				ProductName: p.Name,
				Quantity:    l.Quantity,
				UnitPrice:   p.Price,
				TotalPrice:  lineTotal,
			})
		}

		shipping := s.shippingFee(subtotal)
		tax := subtotal * s.pricing.TaxRateBps / 10000

		var discount int64
		var coupon *domain.Coupon
		if input.CouponCode != "" {
			coupon, err = s.applyCoupon(ctx, r, input.CouponCode, subtotal, shipping, &discount, &shipping)
			if err != nil {
				return err
			}
		}

		order = &domain.Order{
			UserID:          userID,
			Status:          domain.StatusPending,
			PaymentStatus:   domain.PaymentUnpaid,
			PaymentMethod:   input.PaymentMethod,
			Subtotal:        subtotal,
			DiscountAmount:  discount,
			ShippingAmount:  shipping,
			TaxAmount:       tax,
			TotalAmount:     subtotal - discount + shipping + tax,
			Currency:        "VND",
			ShippingName:    input.ShippingName,
			ShippingPhone:   input.ShippingPhone,
			ShippingAddress: input.ShippingAddress,
			ShippingCity:    input.ShippingCity,
			Items:           items,
		}
		if coupon != nil {
			order.CouponID = coupon.ID
			order.CouponCode = coupon.Code
		}

		return s.createWithOrderNumber(ctx, r, order)
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(domain.EventOrderCreated, domain.OrderCreatedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
		CreatedAt:   order.CreatedAt,
	})

	return order, nil
}

// applyCoupon validates the code, computes the discount against the current
// subtotal and shipping fee, and consumes one use. The conditional increment
// in the repository re-checks the cap, so a stale validation read cannot
// oversell the coupon.
func (s *OrderService) applyCoupon(ctx context.Context, r repository.Repositories, code string, subtotal, shipping int64, discount, shippingOut *int64) (*domain.Coupon, error) {
	coupon, err := r.Coupons().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return nil, &domain.CouponRejectedError{
				Code:   domain.NormalizeCouponCode(code),
				Reason: domain.CouponReasonNotFound,
			}
		}
		return nil, err
	}
	if err := coupon.Validate(s.now()); err != nil {
		return nil, err
	}
	d, err := coupon.ComputeDiscount(subtotal, shipping)
	if err != nil {
		return nil, err
	}
	if err := r.Coupons().IncrementUsage(ctx, coupon.ID); err != nil {
		return nil, err
	}
	*discount = d.Amount
	*shippingOut = shipping - d.ShippingDiscount
	return coupon, nil
}

func (s *OrderService) createWithOrderNumber(ctx context.Context, r repository.Repositories, order *domain.Order) error {
	var err error
	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		order.OrderNumber = s.generateOrderNumber()
		err = r.Orders().Create(ctx, order)
		if err == nil || !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return err
}

// generateOrderNumber: date prefix for human sharing, random suffix for
// collision resistance under concurrent creation. Collisions are retried on
// the unique constraint.
func (s *OrderService) generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("SHP-%s-%s", s.now().Format("060102"), suffix)
}

func (s *OrderService) shippingFee(subtotal int64) int64 {
	if s.pricing.FreeShippingThreshold > 0 && subtotal >= s.pricing.FreeShippingThreshold {
		return 0
	}
	return s.pricing.ShippingFlatFee
}

// CancelOrder flips the status and restores every reserved line inside one
// transaction; cancellation and stock restitution commit together or not at
// all.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint64, reason string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Cancellable() {
			return &domain.InvalidTransitionError{From: string(o.Status), To: string(domain.StatusCancelled)}
		}

		for _, item := range o.Items {
			if err := r.Inventory().Restore(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		now := s.now()
		o.Status = domain.StatusCancelled
		o.CancelledAt = &now
		o.CancellationReason = reason
		if err := r.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.publishEvent(domain.EventOrderCancelled, domain.OrderCancelledEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reason:      reason,
		CancelledAt: *order.CancelledAt,
	})

	return order, nil
}

// TransitionStatus applies one fulfilment edge. Cancellation is routed through
// CancelOrder so stock restitution is never skipped.
func (s *OrderService) TransitionStatus(ctx context.Context, orderID uint64, to domain.OrderStatus) (*domain.Order, error) {
	if to == domain.StatusCancelled {
		return s.CancelOrder(ctx, orderID, "")
	}

	var order *domain.Order
	err := s.store.InTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !domain.CanTransitionStatus(o.Status, to) {
			return &domain.InvalidTransitionError{From: string(o.Status), To: string(to)}
		}
		o.Status = to
		if to == domain.StatusDelivered {
			now := s.now()
			o.DeliveredAt = &now
		}
		if err := r.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkPaid applies unpaid→paid. Applying it twice has the same effect as
// once: the second call reports applied=false and performs no write.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint64, gatewayName, transactionID string) (*domain.Order, bool, error) {
	var order *domain.Order
	applied := false
	err := s.store.InTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus == domain.PaymentPaid {
			order = o
			return nil
		}
		if !domain.CanTransitionPayment(o.PaymentStatus, domain.PaymentPaid) {
			return &domain.InvalidTransitionError{From: string(o.PaymentStatus), To: string(domain.PaymentPaid)}
		}
		now := s.now()
		o.PaymentStatus = domain.PaymentPaid
		o.PaidAt = &now
		if gatewayName != "" {
			o.PaymentGateway = gatewayName
		}
		if transactionID != "" {
			o.PaymentTransactionID = transactionID
		}
		if err := r.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		applied = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if applied {
		go s.publishEvent(domain.EventPaymentConfirmed, domain.PaymentConfirmedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			Gateway:       order.PaymentGateway,
			TransactionID: order.PaymentTransactionID,
			Amount:        order.TotalAmount,
			PaidAt:        *order.PaidAt,
		})
	}

	return order, applied, nil
}

// MarkPaymentFailed applies unpaid→failed; repeated failure reports are
// no-ops.
func (s *OrderService) MarkPaymentFailed(ctx context.Context, orderID uint64, gatewayName, transactionID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(r repository.Repositories) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.PaymentStatus == domain.PaymentFailed {
			order = o
			return nil
		}
		if !domain.CanTransitionPayment(o.PaymentStatus, domain.PaymentFailed) {
			return &domain.InvalidTransitionError{From: string(o.PaymentStatus), To: string(domain.PaymentFailed)}
		}
		o.PaymentStatus = domain.PaymentFailed
		if gatewayName != "" {
			o.PaymentGateway = gatewayName
		}
		if transactionID != "" {
			o.PaymentTransactionID = transactionID
		}
		if err := r.Orders().Update(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID uint64) (*domain.Order, error) {
	return s.store.Orders().FindByID(ctx, orderID)
}

func (s *OrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.store.Orders().FindByOrderNumber(ctx, orderNumber)
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	return s.store.Orders().FindByUserID(ctx, userID, limit)
}

// PreviewCoupon validates a code and computes the discount without consuming
// a use.
func (s *OrderService) PreviewCoupon(ctx context.Context, code string, orderAmount int64) (domain.Discount, error) {
	coupon, err := s.store.Coupons().FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return domain.Discount{}, &domain.CouponRejectedError{
				Code:   domain.NormalizeCouponCode(code),
				Reason: domain.CouponReasonNotFound,
			}
		}
		return domain.Discount{}, err
	}
	if err := coupon.Validate(s.now()); err != nil {
		return domain.Discount{}, err
	}
	return coupon.ComputeDiscount(orderAmount, s.shippingFee(orderAmount))
}

func (s *OrderService) publishEvent(routingKey string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.Background(), routingKey, data); err != nil {
		s.logger.Error("publish event failed",
			zap.String("routingKey", routingKey), zap.Error(err))
	}
}

func mergeLines(items []OrderItemInput) ([]OrderItemInput, error) {
	if len(items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Detail: "at least one line required"}
	}
	// The inventory reservation runs once per distinct product, so duplicate
	// lines are merged up front.
	idx := make(map[uint64]int)
	merged := make([]OrderItemInput, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, &domain.ValidationError{Field: "quantity", Detail: "must be at least 1"}
		}
		if i, ok := idx[it.ProductID]; ok {
			merged[i].Quantity += it.Quantity
			continue
		}
		idx[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}
