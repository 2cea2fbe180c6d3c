package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
	"github.com/vhxmt/doantotnghiep-sub001/internal/infra/gateway"
	"github.com/vhxmt/doantotnghiep-sub001/internal/repository"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByUserID(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) FindUnpaidByGateway(ctx context.Context, gatewayName string, limit int) ([]domain.Order, error) {
	args := m.Called(ctx, gatewayName, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindActiveByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByProductID(ctx context.Context, productID uint64) (*domain.Inventory, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Inventory), args.Error(1)
}

func (m *MockInventoryRepository) Reserve(ctx context.Context, productID uint64, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

func (m *MockInventoryRepository) Restore(ctx context.Context, productID uint64, quantity int) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}

func (m *MockCouponRepository) IncrementUsage(ctx context.Context, couponID uint64) error {
	args := m.Called(ctx, couponID)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) FindOrCreateGuest(ctx context.Context, email, name, phone string) (*domain.User, error) {
	args := m.Called(ctx, email, name, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	args := m.Called(ctx, routingKey, data)
	return args.Error(0)
}

type MockAdapter struct {
	mock.Mock
	GatewayName string
}

func (m *MockAdapter) Name() string {
	if m.GatewayName != "" {
		return m.GatewayName
	}
	return "mockpay"
}

func (m *MockAdapter) BuildPaymentRequest(ctx context.Context, order gateway.PaymentOrder) (*gateway.PaymentRequest, error) {
	args := m.Called(ctx, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentRequest), args.Error(1)
}

func (m *MockAdapter) ParseCallback(raw []byte) (*gateway.CallbackResult, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CallbackResult), args.Error(1)
}

func (m *MockAdapter) OrderNumberFromReference(reference string) (string, error) {
	args := m.Called(reference)
	return args.String(0), args.Error(1)
}

func (m *MockAdapter) Ack(outcome gateway.AckOutcome) any {
	args := m.Called(outcome)
	return args.Get(0)
}

func (m *MockAdapter) QueryStatus(ctx context.Context, reference string) (gateway.PaymentState, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(gateway.PaymentState), args.Error(1)
}

// Repos bundles the mock repositories behind repository.Repositories.
type Repos struct {
	OrderRepo     *MockOrderRepository
	ProductRepo   *MockProductRepository
	InventoryRepo *MockInventoryRepository
	CouponRepo    *MockCouponRepository
	UserRepo      *MockUserRepository
}

func NewRepos() *Repos {
	return &Repos{
		OrderRepo:     new(MockOrderRepository),
		ProductRepo:   new(MockProductRepository),
		InventoryRepo: new(MockInventoryRepository),
		CouponRepo:    new(MockCouponRepository),
		UserRepo:      new(MockUserRepository),
	}
}

func (r *Repos) Orders() repository.OrderRepository       { return r.OrderRepo }
func (r *Repos) Products() repository.ProductRepository   { return r.ProductRepo }
func (r *Repos) Inventory() repository.InventoryRepository { return r.InventoryRepo }
func (r *Repos) Coupons() repository.CouponRepository     { return r.CouponRepo }
func (r *Repos) Users() repository.UserRepository         { return r.UserRepo }

// TxRunner runs the unit-of-work callback against the mock repositories. An
// error from the callback stands in for a rolled-back transaction.
type TxRunner struct {
	*Repos
	BeginErr error
}

func NewTxRunner() *TxRunner {
	return &TxRunner{Repos: NewRepos()}
}

func (t *TxRunner) InTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	if t.BeginErr != nil {
		return t.BeginErr
	}
	return fn(t.Repos)
}

var _ repository.TxRunner = (*TxRunner)(nil)
var _ gateway.Adapter = (*MockAdapter)(nil)
