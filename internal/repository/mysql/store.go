package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/vhxmt/doantotnghiep-sub001/internal/repository"
)

// Store implements repository.TxRunner over a gorm handle. InTx hands the
// callback a Store bound to the transaction, so every repository obtained
// inside shares the same unit of work.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Orders() repository.OrderRepository       { return &orderRepo{db: s.db} }
func (s *Store) Products() repository.ProductRepository   { return &productRepo{db: s.db} }
func (s *Store) Inventory() repository.InventoryRepository { return &inventoryRepo{db: s.db} }
func (s *Store) Coupons() repository.CouponRepository     { return &couponRepo{db: s.db} }
func (s *Store) Users() repository.UserRepository         { return &userRepo{db: s.db} }

func (s *Store) InTx(ctx context.Context, fn func(r repository.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

var _ repository.TxRunner = (*Store)(nil)
