package repository

import (
	"context"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type ProductRepository interface {
	// FindActiveByIDs returns only products with status active; callers must
	// treat a missing id as a rejected order line.
	FindActiveByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error)
}

type InventoryRepository interface {
	FindByProductID(ctx context.Context, productID uint64) (*domain.Inventory, error)
	// Reserve atomically decrements quantity and increments reserved_quantity,
	// failing with *domain.InsufficientStockError when available stock is short.
	Reserve(ctx context.Context, productID uint64, quantity int) error
	// Restore adds quantity back and decrements reserved_quantity, floored at
	// zero; used on cancellation.
	Restore(ctx context.Context, productID uint64, quantity int) error
}

type CouponRepository interface {
	// FindByCode looks up by the uppercase-normalized code.
	FindByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// IncrementUsage applies a conditional increment that re-checks the usage
	// cap atomically; an exhausted cap yields *domain.CouponRejectedError.
	IncrementUsage(ctx context.Context, couponID uint64) error
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint64) (*domain.User, error)
	// FindOrCreateGuest keys a minimal customer record on contact email.
	FindOrCreateGuest(ctx context.Context, email, name, phone string) (*domain.User, error)
}
