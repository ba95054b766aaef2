// Package storage holds the single store behind the cart, checkout and
// order-lifecycle paths. Product stock is the one shared mutable counter
// contended by all three; every mutating path reads and conditionally
// writes it through this interface, and the placement path does so inside
// InTransaction so concurrent checkouts cannot both pass the stock check.
package storage

import (
	"errors"

	"github.com/oakline/storefront/models"
)

var (
	// ErrCartNotFound is returned when a user has no cart yet.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound is returned when a product has no line in the cart.
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOrderNotFound is returned when an order is not found.
	ErrOrderNotFound = errors.New("order not found")
)

// Store is the data access surface of the order and cart core.
//
// InTransaction runs fn against a store view whose writes become visible
// only if fn returns nil; any error rolls the whole scope back. Product
// reads inside a transaction lock the row for the duration of the scope.
type Store interface {
	InTransaction(fn func(tx Store) error) error

	ProductByID(id uint) (*models.Product, error)
	SetProductStock(id uint, stock int) error

	// CartForUser finds the user's cart, creating it on first use.
	CartForUser(userID uint) (*models.Cart, error)
	// CartWithItems loads the cart with its items and their products.
	// Returns ErrCartNotFound if the user has no cart.
	CartWithItems(userID uint) (*models.Cart, error)
	CartItem(cartID, productID uint) (*models.CartItem, error)
	SaveCartItem(item *models.CartItem) error
	DeleteCartItem(cartID, productID uint) error
	ClearCartItems(cartID uint) error

	// CreateOrder persists the order together with its detail lines.
	CreateOrder(order *models.Order) error
	OrderWithDetails(orderID uint) (*models.Order, error)
	OrdersForUser(userID uint) ([]models.Order, error)
	AllOrders() ([]models.Order, error)
	SetOrderStatus(orderID uint, status models.OrderStatus) error
}
