package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

// ErrEmptyCart is returned when the user has no cart or no items in it.
var ErrEmptyCart = errors.New("your cart is empty")

// ValidationError is returned when required shipping fields are missing.
// It is raised before any store access.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required checkout fields: " + strings.Join(e.Fields, ", ")
}

// InsufficientStockError is returned when a cart line can no longer be
// covered by the product's stock at placement time.
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

// ShippingInfo is the checkout form input. Everything except
// DeliveryLocation is required.
type ShippingInfo struct {
	ShippingAddress  string `json:"shipping_address" validate:"required"`
	City             string `json:"city" validate:"required"`
	PostalCode       string `json:"postal_code" validate:"required"`
	Country          string `json:"country" validate:"required"`
	PaymentMethod    string `json:"payment_method" validate:"required"`
	DeliveryLocation string `json:"location"`
}

// Placer converts a cart into an order. The whole conversion runs in one
// transaction: stock is re-checked against the live product rows, the
// order and its lines are written, stock is decremented and the cart is
// cleared, or none of it happens.
type Placer struct {
	store    storage.Store
	validate *validator.Validate
}

func NewPlacer(store storage.Store) *Placer {
	return &Placer{store: store, validate: validator.New()}
}

// PlaceOrder places an order for everything in the user's cart, billed at
// each line's captured price snapshot, and returns the new order's ID.
func (p *Placer) PlaceOrder(userID uint, info ShippingInfo) (uint, error) {
	if err := p.validate.Struct(info); err != nil {
		verr := &ValidationError{}
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				verr.Fields = append(verr.Fields, fe.Field())
			}
		}
		return 0, verr
	}

	var orderID uint
	err := p.store.InTransaction(func(tx storage.Store) error {
		cart, err := tx.CartWithItems(userID)
		if err != nil {
			if errors.Is(err, storage.ErrCartNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		// Re-check every line against the live product row. Stock may
		// have moved since the item was added; the advisory cart-time
		// check guarantees nothing.
		total := decimal.Zero
		details := make([]models.OrderDetail, 0, len(cart.Items))
		type stockUpdate struct {
			productID uint
			remaining int
		}
		updates := make([]stockUpdate, 0, len(cart.Items))

		for _, item := range cart.Items {
			product, err := tx.ProductByID(item.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return &InsufficientStockError{Product: product.Name}
			}
			total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
			details = append(details, models.OrderDetail{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Price:     item.Price,
			})
			updates = append(updates, stockUpdate{product.ID, product.Stock - item.Quantity})
		}

		order := &models.Order{
			UserID:           userID,
			OrderDate:        time.Now(),
			TotalAmount:      total,
			Status:           models.StatusProcessing,
			ShippingAddress:  info.ShippingAddress,
			City:             info.City,
			PostalCode:       info.PostalCode,
			Country:          info.Country,
			PaymentMethod:    info.PaymentMethod,
			DeliveryLocation: info.DeliveryLocation,
			Details:          details,
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}

		for _, u := range updates {
			if err := tx.SetProductStock(u.productID, u.remaining); err != nil {
				return err
			}
		}

		if err := tx.ClearCartItems(cart.ID); err != nil {
			return err
		}

		orderID = order.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}
