package repository

import (
	"context"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type OrderRepository interface {
	// Create inserts the order together with its line items.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint64) (*domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	FindByUserID(ctx context.Context, userID uint64, limit int) ([]domain.Order, error)
	// FindUnpaidByGateway lists orders awaiting a gateway result, oldest first.
	FindUnpaidByGateway(ctx context.Context, gateway string, limit int) ([]domain.Order, error)
	Update(ctx context.Context, order *domain.Order) error
}
