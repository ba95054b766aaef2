package checkout

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/storefront/app/cart"
	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

func validShipping() ShippingInfo {
	return ShippingInfo{
		ShippingAddress: "1 Main St",
		City:            "Lisbon",
		PostalCode:      "1000-001",
		Country:         "PT",
		PaymentMethod:   "card",
	}
}

// fillCart puts quantity units of the product into the user's cart via the
// cart service, so the line carries a real price snapshot.
func fillCart(t *testing.T, store *storage.MemoryStore, userID, productID uint, quantity int) {
	t.Helper()
	require.NoError(t, cart.NewService(store).Add(userID, productID, quantity))
}

func TestPlaceOrder(t *testing.T) {
	t.Run("places order, decrements stock and clears cart", func(t *testing.T) {
		store := storage.NewMemoryStore()
		product := store.SeedProduct(models.Product{
			Name:  "Denim Jacket",
			Price: decimal.NewFromFloat(10.00),
			Stock: 5,
		})
		fillCart(t, store, 1, product.ID, 3)

		orderID, err := NewPlacer(store).PlaceOrder(1, validShipping())
		require.NoError(t, err)
		require.NotZero(t, orderID)

		order, err := store.OrderWithDetails(orderID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusProcessing, order.Status)
		assert.Equal(t, uint(1), order.UserID)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(30.00)),
			"expected total 30.00, got %s", order.TotalAmount)
		require.Len(t, order.Details, 1)
		assert.Equal(t, product.ID, order.Details[0].ProductID)
		assert.Equal(t, 3, order.Details[0].Quantity)
		assert.True(t, order.Details[0].Price.Equal(decimal.NewFromFloat(10.00)))

		got, err := store.ProductByID(product.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Stock)

		view, err := cart.NewService(store).Get(1)
		require.NoError(t, err)
		assert.Empty(t, view.Items)
	})

	t.Run("bills the cart price snapshot, not the live price", func(t *testing.T) {
		store := storage.NewMemoryStore()
		product := store.SeedProduct(models.Product{
			Name:  "Wool Scarf",
			Price: decimal.NewFromFloat(12.50),
			Stock: 10,
		})
		fillCart(t, store, 1, product.ID, 2)

		// Price rises after the item was added; the order still bills the
		// captured snapshot.
		product.Price = decimal.NewFromFloat(99.99)
		store.SeedProduct(product)

		orderID, err := NewPlacer(store).PlaceOrder(1, validShipping())
		require.NoError(t, err)

		order, err := store.OrderWithDetails(orderID)
		require.NoError(t, err)
		assert.True(t, order.TotalAmount.Equal(decimal.NewFromFloat(25.00)),
			"expected total 25.00, got %s", order.TotalAmount)
		assert.True(t, order.Details[0].Price.Equal(decimal.NewFromFloat(12.50)))
	})

	t.Run("insufficient stock rolls everything back", func(t *testing.T) {
		store := storage.NewMemoryStore()
		covered := store.SeedProduct(models.Product{
			Name:  "Covered",
			Price: decimal.NewFromFloat(5.00),
			Stock: 10,
		})
		scarce := store.SeedProduct(models.Product{
			Name:  "Scarce",
			Price: decimal.NewFromFloat(7.00),
			Stock: 4,
		})
		fillCart(t, store, 1, covered.ID, 2)
		fillCart(t, store, 1, scarce.ID, 4)

		// Stock drops below the cart line after it was added.
		require.NoError(t, store.SetProductStock(scarce.ID, 1))

		_, err := NewPlacer(store).PlaceOrder(1, validShipping())
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.Equal(t, "Scarce", stockErr.Product)

		// No order, no stock movement, cart intact.
		orders, err := store.OrdersForUser(1)
		require.NoError(t, err)
		assert.Empty(t, orders)

		got, err := store.ProductByID(covered.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Stock, "covered product's stock must not move")

		view, err := cart.NewService(store).Get(1)
		require.NoError(t, err)
		assert.Len(t, view.Items, 2)
	})

	t.Run("empty cart", func(t *testing.T) {
		store := storage.NewMemoryStore()
		placer := NewPlacer(store)

		// No cart at all.
		_, err := placer.PlaceOrder(1, validShipping())
		assert.ErrorIs(t, err, ErrEmptyCart)

		// Cart exists but has no items.
		product := store.SeedProduct(models.Product{
			Name:  "Belt",
			Price: decimal.NewFromFloat(3.00),
			Stock: 5,
		})
		fillCart(t, store, 2, product.ID, 1)
		require.NoError(t, cart.NewService(store).Clear(2))

		_, err = placer.PlaceOrder(2, validShipping())
		assert.ErrorIs(t, err, ErrEmptyCart)
	})

	t.Run("missing shipping fields fail before any store access", func(t *testing.T) {
		store := storage.NewMemoryStore()
		product := store.SeedProduct(models.Product{
			Name:  "Belt",
			Price: decimal.NewFromFloat(3.00),
			Stock: 5,
		})
		fillCart(t, store, 1, product.ID, 1)

		info := validShipping()
		info.City = ""
		info.PaymentMethod = ""

		_, err := NewPlacer(store).PlaceOrder(1, info)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ElementsMatch(t, []string{"City", "PaymentMethod"}, verr.Fields)

		// The cart must be untouched.
		view, err := cart.NewService(store).Get(1)
		require.NoError(t, err)
		assert.Len(t, view.Items, 1)
	})

	t.Run("concurrent placements never oversell", func(t *testing.T) {
		store := storage.NewMemoryStore()
		product := store.SeedProduct(models.Product{
			Name:  "Last Units",
			Price: decimal.NewFromFloat(10.00),
			Stock: 5,
		})

		// Ten users each want 2 units; only two can succeed.
		const users = 10
		for u := uint(1); u <= users; u++ {
			fillCart(t, store, u, product.ID, 2)
		}

		placer := NewPlacer(store)
		var wg sync.WaitGroup
		errs := make([]error, users)
		for u := uint(1); u <= users; u++ {
			wg.Add(1)
			go func(u uint) {
				defer wg.Done()
				_, errs[u-1] = placer.PlaceOrder(u, validShipping())
			}(u)
		}
		wg.Wait()

		var placed, rejected int
		for _, err := range errs {
			switch {
			case err == nil:
				placed++
			default:
				var stockErr *InsufficientStockError
				require.ErrorAs(t, err, &stockErr)
				rejected++
			}
		}
		assert.Equal(t, 2, placed)
		assert.Equal(t, users-2, rejected)

		got, err := store.ProductByID(product.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Stock, "5 units minus two placements of 2")
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		store := storage.NewMemoryStore()
		product := store.SeedProduct(models.Product{
			Name:  "Ghost",
			Price: decimal.NewFromFloat(1.00),
			Stock: 5,
		})
		fillCart(t, store, 1, product.ID, 1)

		// Product disappears between add and placement.
		failing := &productVanishesStore{Store: store, vanished: product.ID}
		_, err := NewPlacer(failing).PlaceOrder(1, validShipping())
		assert.ErrorIs(t, err, models.ErrProductNotFound)
	})
}

// productVanishesStore wraps a Store and reports one product as missing
// inside transactions.
type productVanishesStore struct {
	storage.Store
	vanished uint
}

func (s *productVanishesStore) InTransaction(fn func(tx storage.Store) error) error {
	return s.Store.InTransaction(func(tx storage.Store) error {
		return fn(&productVanishesStore{Store: tx, vanished: s.vanished})
	})
}

func (s *productVanishesStore) ProductByID(id uint) (*models.Product, error) {
	if id == s.vanished {
		return nil, models.ErrProductNotFound
	}
	return s.Store.ProductByID(id)
}
