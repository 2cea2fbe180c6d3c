package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	"github.com/vhxmt/doantotnghiep-sub001/internal/infra/gateway"
	"github.com/vhxmt/doantotnghiep-sub001/internal/repository"
)

const reconcileBatchSize = 50

// PaymentService owns the gateway-facing half of the payment flow: building
// signed initiation requests and processing verified callbacks. It is
// gateway-agnostic; everything provider-specific lives behind gateway.Adapter.
type PaymentService struct {
	store    repository.TxRunner
	orders   *OrderService
	adapters map[string]gateway.Adapter
	logger   *zap.Logger
}

func NewPaymentService(store repository.TxRunner, orders *OrderService, logger *zap.Logger, adapters ...gateway.Adapter) *PaymentService {
	byName := make(map[string]gateway.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &PaymentService{
		store:    store,
		orders:   orders,
		adapters: byName,
		logger:   logger,
	}
}

func (s *PaymentService) Adapter(name string) (gateway.Adapter, bool) {
	a, ok := s.adapters[name]
	return a, ok
}

// InitiatePayment builds a signed payment request for an unpaid order and
// stores the gateway reference. The outbound call happens after the order was
// committed, so a gateway failure leaves no order or inventory state to undo.
func (s *PaymentService) InitiatePayment(ctx context.Context, orderID uint64, gatewayName, clientIP string) (string, error) {
	a, ok := s.adapters[gatewayName]
	if !ok {
		return "", &domain.ValidationError{Field: "gateway", Detail: fmt.Sprintf("unknown gateway %q", gatewayName)}
	}

	o, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if o.PaymentStatus != domain.PaymentUnpaid {
		return "", &domain.InvalidTransitionError{From: string(o.PaymentStatus), To: string(domain.PaymentPaid)}
	}
	if o.Status != domain.StatusPending && o.Status != domain.StatusConfirmed {
		return "", &domain.InvalidTransitionError{From: string(o.Status), To: "payment"}
	}

	req, err := a.BuildPaymentRequest(ctx, gateway.PaymentOrder{
		OrderNumber: o.OrderNumber,
		Amount:      o.TotalAmount,
		Description: fmt.Sprintf("Thanh toan don hang %s", o.OrderNumber),
		UserID:      o.UserID,
		ClientIP:    clientIP,
	})
	if err != nil {
		return "", err
	}

	o.PaymentGateway = gatewayName
	o.PaymentTransactionID = req.Reference
	if err := s.store.Orders().Update(ctx, o); err != nil {
		return "", err
	}

	return req.RedirectURL, nil
}

// HandleCallback runs the callback pipeline: verify signature, resolve the
// order from the gateway reference, match the amount, then apply the payment
// transition idempotently. Every branch returns the adapter's documented
// acknowledgment because gateways retry until they see their own success
// code. Verification failures fail closed: no database action at all.
func (s *PaymentService) HandleCallback(ctx context.Context, gatewayName string, raw []byte) any {
	a, ok := s.adapters[gatewayName]
	if !ok {
		s.logger.Error("callback for unknown gateway", zap.String("gateway", gatewayName))
		return map[string]any{"code": -1, "message": "unknown gateway"}
	}

	res, err := a.ParseCallback(raw)
	if err != nil {
		s.logger.Warn("callback signature rejected",
			zap.String("gateway", gatewayName), zap.Error(err))
		return a.Ack(gateway.AckInvalidSignature)
	}

	orderNumber, err := a.OrderNumberFromReference(res.Reference)
	if err != nil {
		s.logger.Warn("callback reference unparseable",
			zap.String("gateway", gatewayName), zap.String("reference", res.Reference))
		return a.Ack(gateway.AckOrderNotFound)
	}

	o, err := s.store.Orders().FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			s.logger.Warn("callback for unknown order",
				zap.String("gateway", gatewayName), zap.String("orderNumber", orderNumber))
			return a.Ack(gateway.AckOrderNotFound)
		}
		s.logger.Error("callback order lookup failed", zap.Error(err))
		return a.Ack(gateway.AckInternalError)
	}

	if res.Amount != o.TotalAmount {
		s.logger.Warn("callback amount mismatch",
			zap.String("gateway", gatewayName),
			zap.String("orderNumber", orderNumber),
			zap.Int64("expected", o.TotalAmount),
			zap.Int64("got", res.Amount))
		return a.Ack(gateway.AckAmountMismatch)
	}

	if o.PaymentStatus == domain.PaymentPaid {
		// Duplicate delivery: acknowledge without re-applying anything.
		return a.Ack(gateway.AckAlreadyConfirmed)
	}

	if !res.Succeeded {
		if _, err := s.orders.MarkPaymentFailed(ctx, o.ID, gatewayName, res.TransactionID); err != nil {
			s.logger.Error("apply payment failure", zap.Error(err))
			return a.Ack(gateway.AckInternalError)
		}
		return a.Ack(gateway.AckSuccess)
	}

	if _, _, err := s.orders.MarkPaid(ctx, o.ID, gatewayName, res.TransactionID); err != nil {
		s.logger.Error("apply payment confirmation", zap.Error(err))
		return a.Ack(gateway.AckInternalError)
	}

	s.logger.Info("payment confirmed",
		zap.String("gateway", gatewayName),
		zap.String("orderNumber", orderNumber),
		zap.String("transactionId", res.TransactionID))
	return a.Ack(gateway.AckSuccess)
}

// Reconcile polls gateway status for orders stuck unpaid, for providers whose
// callbacks can be unreliable.
func (s *PaymentService) Reconcile(ctx context.Context) error {
	for name, a := range s.adapters {
		orders, err := s.store.Orders().FindUnpaidByGateway(ctx, name, reconcileBatchSize)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			continue
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(8)
		for _, o := range orders {
			o := o
			g.Go(func() error {
				state, err := a.QueryStatus(gctx, o.PaymentTransactionID)
				if err != nil {
					if errors.Is(err, gateway.ErrQueryNotSupported) {
						return nil
					}
					s.logger.Warn("reconcile query failed",
						zap.String("gateway", name),
						zap.String("orderNumber", o.OrderNumber),
						zap.Error(err))
					return nil
				}
				switch state {
				case gateway.StatePaid:
					_, _, err = s.orders.MarkPaid(gctx, o.ID, name, o.PaymentTransactionID)
				case gateway.StateFailed:
					_, err = s.orders.MarkPaymentFailed(gctx, o.ID, name, o.PaymentTransactionID)
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
