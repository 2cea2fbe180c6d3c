package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/domain"
)

type couponRepo struct {
	db *gorm.DB
}

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var c domain.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", domain.NormalizeCouponCode(code)).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return &c, nil
}

// IncrementUsage re-checks the usage cap in the same statement as the
// increment. The earlier validation read is only advisory; this guard is what
// keeps two concurrent checkouts from both consuming the last use.
func (r *couponRepo) IncrementUsage(ctx context.Context, couponID uint64) error {
	res := r.db.WithContext(ctx).Model(&domain.Coupon{}).
		Where("id = ? AND (usage_limit = 0 OR used_count < usage_limit)", couponID).
		Update("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var c domain.Coupon
		if err := r.db.WithContext(ctx).First(&c, couponID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCouponNotFound
			}
			return err
		}
		return &domain.CouponRejectedError{Code: c.Code, Reason: domain.CouponReasonExhausted}
	}
	return nil
}
