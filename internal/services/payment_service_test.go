package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	"github.com/vhxmt/doantotnghiep-sub001/internal/infra/gateway"
	"github.com/vhxmt/doantotnghiep-sub001/internal/mocks"
)

func newTestPaymentService(store *mocks.TxRunner, adapters ...gateway.Adapter) (*PaymentService, *mocks.MockPublisher) {
	pub := new(mocks.MockPublisher)
	orders := newTestOrderService(store, pub)
	return NewPaymentService(store, orders, orders.logger, adapters...), pub
}

func expectAck(a *mocks.MockAdapter, outcome gateway.AckOutcome, body any) {
	a.On("Ack", outcome).Return(body).Once()
}

func TestPaymentService_InitiatePayment(t *testing.T) {
	t.Run("stores reference and returns redirect", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)
		adapter.On("BuildPaymentRequest", mock.Anything, mock.MatchedBy(func(po gateway.PaymentOrder) bool {
			return po.OrderNumber == order.OrderNumber &&
				po.Amount == order.TotalAmount &&
				po.ClientIP == "203.0.113.9"
		})).Return(&gateway.PaymentRequest{
			RedirectURL: "https://pay.example.com/abc",
			Reference:   "250615_SHP-250615-TEST0001-1750000000",
		}, nil)
		store.OrderRepo.On("Update", mock.Anything, order).Return(nil)

		url, err := svc.InitiatePayment(context.Background(), 42, "mockpay", "203.0.113.9")
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/abc", url)
		assert.Equal(t, "mockpay", order.PaymentGateway)
		assert.Equal(t, "250615_SHP-250615-TEST0001-1750000000", order.PaymentTransactionID)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		svc, _ := newTestPaymentService(mocks.NewTxRunner())

		_, err := svc.InitiatePayment(context.Background(), 42, "stripe", "")
		var vErr *domain.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("paid order rejected", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.PaymentStatus = domain.PaymentPaid
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)

		_, err := svc.InitiatePayment(context.Background(), 42, "mockpay", "")
		var transErr *domain.InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		adapter.AssertNotCalled(t, "BuildPaymentRequest", mock.Anything, mock.Anything)
	})

	t.Run("cancelled order rejected", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.Status = domain.StatusCancelled
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)

		_, err := svc.InitiatePayment(context.Background(), 42, "mockpay", "")
		var transErr *domain.InvalidTransitionError
		assert.ErrorAs(t, err, &transErr)
	})
}

func TestPaymentService_HandleCallback(t *testing.T) {
	raw := []byte(`{"some":"payload"}`)
	const reference = "250615_SHP-250615-TEST0001-1750000000"

	okResult := func(amount int64) *gateway.CallbackResult {
		return &gateway.CallbackResult{
			Reference:     reference,
			Amount:        amount,
			Succeeded:     true,
			TransactionID: "txn-9",
		}
	}

	t.Run("invalid signature fails closed", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		adapter.On("ParseCallback", raw).Return(nil, gateway.ErrInvalidSignature)
		expectAck(adapter, gateway.AckInvalidSignature, map[string]any{"return_code": -1})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"return_code": -1}, ack)

		// Nothing touched the database.
		store.OrderRepo.AssertNotCalled(t, "FindByOrderNumber", mock.Anything, mock.Anything)
		store.OrderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("unknown order acked as not found", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		adapter.On("ParseCallback", raw).Return(okResult(200000), nil)
		adapter.On("OrderNumberFromReference", reference).Return("SHP-250615-TEST0001", nil)
		store.OrderRepo.On("FindByOrderNumber", mock.Anything, "SHP-250615-TEST0001").
			Return(nil, domain.ErrOrderNotFound)
		expectAck(adapter, gateway.AckOrderNotFound, map[string]any{"RspCode": "01"})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"RspCode": "01"}, ack)
	})

	t.Run("amount mismatch rejected without mutation", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		adapter.On("ParseCallback", raw).Return(okResult(199999), nil)
		adapter.On("OrderNumberFromReference", reference).Return(order.OrderNumber, nil)
		store.OrderRepo.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		expectAck(adapter, gateway.AckAmountMismatch, map[string]any{"RspCode": "04"})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"RspCode": "04"}, ack)
		assert.Equal(t, domain.PaymentUnpaid, order.PaymentStatus)
		store.OrderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("successful callback marks the order paid", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, pub := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		adapter.On("ParseCallback", raw).Return(okResult(200000), nil)
		adapter.On("OrderNumberFromReference", reference).Return(order.OrderNumber, nil)
		store.OrderRepo.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)
		store.OrderRepo.On("Update", mock.Anything, order).Return(nil)
		pub.On("Publish", mock.Anything, domain.EventPaymentConfirmed, mock.Anything).Return(nil).Maybe()
		expectAck(adapter, gateway.AckSuccess, map[string]any{"return_code": 1})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"return_code": 1}, ack)
		assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
		assert.Equal(t, "txn-9", order.PaymentTransactionID)
		assert.Equal(t, "mockpay", order.PaymentGateway)
		require.NotNil(t, order.PaidAt)
		time.Sleep(50 * time.Millisecond)
	})

	t.Run("replayed callback acked without a second write", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.PaymentStatus = domain.PaymentPaid
		adapter.On("ParseCallback", raw).Return(okResult(200000), nil)
		adapter.On("OrderNumberFromReference", reference).Return(order.OrderNumber, nil)
		store.OrderRepo.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		expectAck(adapter, gateway.AckAlreadyConfirmed, map[string]any{"RspCode": "02"})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"RspCode": "02"}, ack)
		store.OrderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("failed payment recorded", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		res := okResult(200000)
		res.Succeeded = false
		adapter.On("ParseCallback", raw).Return(res, nil)
		adapter.On("OrderNumberFromReference", reference).Return(order.OrderNumber, nil)
		store.OrderRepo.On("FindByOrderNumber", mock.Anything, order.OrderNumber).Return(order, nil)
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)
		store.OrderRepo.On("Update", mock.Anything, order).Return(nil)
		expectAck(adapter, gateway.AckSuccess, map[string]any{"return_code": 1})

		svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, domain.PaymentFailed, order.PaymentStatus)
	})

	t.Run("unparseable reference", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		adapter.On("ParseCallback", raw).Return(okResult(200000), nil)
		adapter.On("OrderNumberFromReference", reference).Return("", gateway.ErrInvalidSignature)
		expectAck(adapter, gateway.AckOrderNotFound, map[string]any{"RspCode": "01"})

		ack := svc.HandleCallback(context.Background(), "mockpay", raw)
		assert.Equal(t, map[string]any{"RspCode": "01"}, ack)
	})
}

func TestPaymentService_Reconcile(t *testing.T) {
	t.Run("paid at gateway marks the order paid", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, pub := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.PaymentGateway = "mockpay"
		order.PaymentTransactionID = "ref-42"
		store.OrderRepo.On("FindUnpaidByGateway", mock.Anything, "mockpay", reconcileBatchSize).
			Return([]domain.Order{*order}, nil)
		adapter.On("QueryStatus", mock.Anything, "ref-42").Return(gateway.StatePaid, nil)
		store.OrderRepo.On("FindByID", mock.Anything, uint64(42)).Return(order, nil)
		store.OrderRepo.On("Update", mock.Anything, order).Return(nil)
		pub.On("Publish", mock.Anything, domain.EventPaymentConfirmed, mock.Anything).Return(nil).Maybe()

		require.NoError(t, svc.Reconcile(context.Background()))
		assert.Equal(t, domain.PaymentPaid, order.PaymentStatus)
		time.Sleep(50 * time.Millisecond)
	})

	t.Run("still pending leaves the order alone", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.PaymentTransactionID = "ref-42"
		store.OrderRepo.On("FindUnpaidByGateway", mock.Anything, "mockpay", reconcileBatchSize).
			Return([]domain.Order{*order}, nil)
		adapter.On("QueryStatus", mock.Anything, "ref-42").Return(gateway.StatePending, nil)

		require.NoError(t, svc.Reconcile(context.Background()))
		store.OrderRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("query not supported is skipped", func(t *testing.T) {
		store := mocks.NewTxRunner()
		adapter := new(mocks.MockAdapter)
		svc, _ := newTestPaymentService(store, adapter)

		order := pendingOrder(42, 200000)
		order.PaymentTransactionID = "ref-42"
		store.OrderRepo.On("FindUnpaidByGateway", mock.Anything, "mockpay", reconcileBatchSize).
			Return([]domain.Order{*order}, nil)
		adapter.On("QueryStatus", mock.Anything, "ref-42").
			Return(gateway.PaymentState(""), gateway.ErrQueryNotSupported)

		require.NoError(t, svc.Reconcile(context.Background()))
		store.OrderRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})
}
