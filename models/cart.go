package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is a user's in-progress selection. One cart per user, created
// lazily on the first add; the row survives checkout, only its items are
// cleared.
type Cart struct {
	ID        uint       `gorm:"primaryKey"`
	UserID    uint       `gorm:"uniqueIndex;not null"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) TableName() string {
	return "carts"
}

// CartItem holds one (cart, product) line. Price is the product's price
// at the moment the item was added; cart totals bill this snapshot even
// if the catalog price changes before checkout.
type CartItem struct {
	ID        uint            `gorm:"primaryKey"`
	CartID    uint            `gorm:"not null;uniqueIndex:idx_cart_product"`
	ProductID uint            `gorm:"not null;uniqueIndex:idx_cart_product"`
	Quantity  int             `gorm:"not null;default:1"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *CartItem) TableName() string {
	return "cart_items"
}
