package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type orderRepo struct {
	db *gorm.DB
}

func (r *orderRepo) Create(ctx context.Context, order *domain.Order) error {
	// Items ride along via the association; gorm inserts them with the order.
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").
		Where("order_number = ?", orderNumber).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID uint64, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := r.db.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) FindUnpaidByGateway(ctx context.Context, gateway string, limit int) ([]domain.Order, error) {
	var out []domain.Order
	q := r.db.WithContext(ctx).
		Where("payment_gateway = ? AND payment_status = ? AND payment_transaction_id <> ''",
			gateway, domain.PaymentUnpaid).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) Update(ctx context.Context, order *domain.Order) error {
	// Omit items: line rows are immutable after creation.
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}
