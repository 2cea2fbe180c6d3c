package repository

import "context"

// Repositories bundles the per-entity repositories sharing one database
// handle, so a transaction hands the caller tx-scoped instances of all of
// them at once.
type Repositories interface {
	Orders() OrderRepository
	Products() ProductRepository
	Inventory() InventoryRepository
	Coupons() CouponRepository
	Users() UserRepository
}

// TxRunner is the unit-of-work boundary: everything done inside InTx commits
// or rolls back together.
type TxRunner interface {
	Repositories
	InTx(ctx context.Context, fn func(r Repositories) error) error
}
