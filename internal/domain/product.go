package domain

import "time"

type ProductStatus string

const (
	ProductActive       ProductStatus = "active"
	ProductOutOfStock   ProductStatus = "out_of_stock"
	ProductDiscontinued ProductStatus = "discontinued"
)

// Product is read by the order workflow; its price is copied into order lines
// at order time and never read live again.
type Product struct {
	ID     uint64        `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string        `json:"name" gorm:"size:255;not null"`
	Price  int64         `json:"price" gorm:"not null"`
	Status ProductStatus `json:"status" gorm:"size:16;not null;default:'active';index"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

// Inventory tracks physically available units per product. Quantity never goes
// negative; ReservedQuantity is bookkeeping for placed-but-unfulfilled orders.
type Inventory struct {
	ID                uint64 `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID         uint64 `json:"productId" gorm:"uniqueIndex;not null"`
	Quantity          int    `json:"quantity" gorm:"not null;default:0"`
	ReservedQuantity  int    `json:"reservedQuantity" gorm:"not null;default:0"`
	LowStockThreshold int    `json:"lowStockThreshold" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Inventory) TableName() string { return "inventories" }

func (i *Inventory) LowStock() bool {
	return i.LowStockThreshold > 0 && i.Quantity <= i.LowStockThreshold
}
