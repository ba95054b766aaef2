package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order. Only the transitions
// into and out of Cancelled carry stock side effects; every other status
// change is a plain field update.
type OrderStatus string

const (
	StatusPending    OrderStatus = "Pending"
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is an immutable record of a completed purchase. Everything except
// Status is fixed at placement time; TotalAmount never changes after
// creation.
type Order struct {
	ID               uint            `gorm:"primaryKey"`
	UserID           uint            `gorm:"not null;index"`
	OrderDate        time.Time       `gorm:"not null"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status           OrderStatus     `gorm:"type:varchar(20);not null;default:Pending"`
	ShippingAddress  string          `gorm:"not null"`
	City             string          `gorm:"not null"`
	PostalCode       string          `gorm:"not null"`
	Country          string          `gorm:"not null"`
	PaymentMethod    string          `gorm:"not null"`
	DeliveryLocation string          `gorm:"type:text"`
	Details          []OrderDetail   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (o *Order) TableName() string {
	return "orders"
}

// OrderDetail is one billed line of an order: what was bought, how many,
// and at what price. It is a historical snapshot, independent of later
// product price or stock changes. Products referenced by order details
// cannot be deleted.
type OrderDetail struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"not null;index"`
	ProductID uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;default:1"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time
}

func (d *OrderDetail) TableName() string {
	return "order_details"
}
