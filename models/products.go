package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog.
// Stock is the available-to-sell counter; it is decremented at order
// placement and adjusted again when orders move into or out of Cancelled.
// It must never go negative.
type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Name        string          `gorm:"uniqueIndex;not null"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Stock       int             `gorm:"not null;default:0"`
	Image       string
	CategoryID  *uint
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) TableName() string {
	return "products"
}
