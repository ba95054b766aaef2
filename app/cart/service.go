package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

// ErrOutOfStock is returned when a product has no stock left at all.
var ErrOutOfStock = errors.New("item is out of stock")

// QuantityExceedsStockError is returned by Add when the combined cart
// quantity would exceed the product's stock. The existing cart line is
// left untouched.
type QuantityExceedsStockError struct {
	Product string
	Stock   int
}

func (e *QuantityExceedsStockError) Error() string {
	return fmt.Sprintf("cannot add more %q: total stock is %d", e.Product, e.Stock)
}

// Service mutates carts. Its stock checks are advisory, taken at request
// time; the authoritative check happens again at order placement, since
// stock can change between cart mutation and checkout.
type Service struct {
	store storage.Store
}

func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Add puts quantity units of a product into the user's cart, creating the
// cart on first use. Adding a product already in the cart accumulates its
// quantity, and the combined total is rejected when it exceeds stock;
// a fresh line snapshots the product's current price.
func (s *Service) Add(userID, productID uint, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	product, err := s.store.ProductByID(productID)
	if err != nil {
		return err
	}
	if product.Stock <= 0 {
		return ErrOutOfStock
	}

	cart, err := s.store.CartForUser(userID)
	if err != nil {
		return err
	}

	item, err := s.store.CartItem(cart.ID, productID)
	switch {
	case err == nil:
		if item.Quantity+quantity > product.Stock {
			return &QuantityExceedsStockError{Product: product.Name, Stock: product.Stock}
		}
		item.Quantity += quantity
		return s.store.SaveCartItem(item)
	case errors.Is(err, storage.ErrCartItemNotFound):
		return s.store.SaveCartItem(&models.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			Price:     product.Price,
		})
	default:
		return err
	}
}

// UpdateResult reports what an UpdateQuantity call actually did.
type UpdateResult struct {
	Quantity int
	// Clamped is set when the requested quantity exceeded stock and was
	// lowered to the available maximum. Unlike Add, update never rejects.
	Clamped bool
	Removed bool
}

// UpdateQuantity sets a cart line to quantity. A quantity above stock is
// clamped to stock; zero or less removes the line.
func (s *Service) UpdateQuantity(userID, productID uint, quantity int) (UpdateResult, error) {
	product, err := s.store.ProductByID(productID)
	if err != nil {
		return UpdateResult{}, err
	}
	if product.Stock <= 0 {
		return UpdateResult{}, ErrOutOfStock
	}

	clamped := false
	if quantity > product.Stock {
		quantity = product.Stock
		clamped = true
	}

	cart, err := s.store.CartWithItems(userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return UpdateResult{}, storage.ErrCartItemNotFound
		}
		return UpdateResult{}, err
	}

	item, err := s.store.CartItem(cart.ID, productID)
	if err != nil {
		return UpdateResult{}, err
	}

	if quantity <= 0 {
		if err := s.store.DeleteCartItem(cart.ID, productID); err != nil {
			return UpdateResult{}, err
		}
		return UpdateResult{Removed: true}, nil
	}

	item.Quantity = quantity
	if err := s.store.SaveCartItem(item); err != nil {
		return UpdateResult{}, err
	}
	return UpdateResult{Quantity: quantity, Clamped: clamped}, nil
}

// Remove deletes a product's line from the user's cart.
func (s *Service) Remove(userID, productID uint) error {
	cart, err := s.store.CartWithItems(userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return storage.ErrCartItemNotFound
		}
		return err
	}
	return s.store.DeleteCartItem(cart.ID, productID)
}

// Clear empties the user's cart. A missing cart is already empty.
func (s *Service) Clear(userID uint) error {
	cart, err := s.store.CartWithItems(userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return nil
		}
		return err
	}
	return s.store.ClearCartItems(cart.ID)
}

// Line is one cart entry with its billed subtotal. Price is the snapshot
// captured at add time, not the product's live price.
type Line struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type View struct {
	Items []Line          `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Get returns the cart's display model. A missing cart reads as empty.
func (s *Service) Get(userID uint) (*View, error) {
	cart, err := s.store.CartWithItems(userID)
	if err != nil {
		if errors.Is(err, storage.ErrCartNotFound) {
			return &View{Items: []Line{}, Total: decimal.Zero}, nil
		}
		return nil, err
	}

	view := &View{Items: make([]Line, 0, len(cart.Items)), Total: decimal.Zero}
	for _, item := range cart.Items {
		line := Line{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		}
		if item.Product != nil {
			line.Name = item.Product.Name
		}
		view.Total = view.Total.Add(line.Subtotal)
		view.Items = append(view.Items, line)
	}
	return view, nil
}
