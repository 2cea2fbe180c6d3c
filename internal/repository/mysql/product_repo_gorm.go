package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type productRepo struct {
	db *gorm.DB
}

func (r *productRepo) FindActiveByIDs(ctx context.Context, ids []uint64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []domain.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND status = ?", ids, domain.ProductActive).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
