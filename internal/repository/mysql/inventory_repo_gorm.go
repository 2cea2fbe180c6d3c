package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type inventoryRepo struct {
	db *gorm.DB
}

func (r *inventoryRepo) FindByProductID(ctx context.Context, productID uint64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// Reserve is a conditional decrement: the WHERE guard makes the check and the
// write one atomic statement, so concurrent reservations can never drive
// quantity negative. Zero rows affected means the stock was short.
func (r *inventoryRepo) Reserve(ctx context.Context, productID uint64, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Detail: "must be at least 1"}
	}

	res := r.db.WithContext(ctx).Model(&domain.Inventory{}).
		Where("product_id = ? AND quantity >= ?", productID, quantity).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity - ?", quantity),
			"reserved_quantity": gorm.Expr("reserved_quantity + ?", quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		inv, err := r.FindByProductID(ctx, productID)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: quantity,
			Available: inv.Quantity,
		}
	}
	return nil
}

// Restore reverses a reservation symmetrically; reserved_quantity is floored
// at zero in SQL so repeated restores cannot underflow the counter.
func (r *inventoryRepo) Restore(ctx context.Context, productID uint64, quantity int) error {
	if quantity <= 0 {
		return &domain.ValidationError{Field: "quantity", Detail: "must be at least 1"}
	}

	res := r.db.WithContext(ctx).Model(&domain.Inventory{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity": gorm.Expr("quantity + ?", quantity),
			"reserved_quantity": gorm.Expr(
				"CASE WHEN reserved_quantity >= ? THEN reserved_quantity - ? ELSE 0 END",
				quantity, quantity),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
