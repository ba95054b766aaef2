package orders

import (
	"errors"
	"fmt"

	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

// ErrUnknownStatus is returned for statuses outside the known set.
var ErrUnknownStatus = errors.New("unknown order status")

// ReactivationStockError is returned when an order cannot leave Cancelled
// because a line's quantity is no longer covered by stock. The status and
// all stock values are left untouched.
type ReactivationStockError struct {
	Product string
}

func (e *ReactivationStockError) Error() string {
	return fmt.Sprintf("cannot reactivate: %s is out of stock", e.Product)
}

// Lifecycle drives admin status transitions. Only the edges touching
// Cancelled move stock: entering Cancelled returns every line's quantity
// to its product, leaving Cancelled takes it again after verifying it is
// still available. Setting the current status again is a stock no-op.
type Lifecycle struct {
	store storage.Store
}

func NewLifecycle(store storage.Store) *Lifecycle {
	return &Lifecycle{store: store}
}

// UpdateStatus moves an order to newStatus. The stock reconciliation and
// the status write share one transaction, so a failing line never leaves
// a partial restock behind.
func (l *Lifecycle) UpdateStatus(orderID uint, newStatus models.OrderStatus) error {
	if !newStatus.Valid() {
		return ErrUnknownStatus
	}

	return l.store.InTransaction(func(tx storage.Store) error {
		order, err := tx.OrderWithDetails(orderID)
		if err != nil {
			return err
		}
		oldStatus := order.Status

		switch {
		case newStatus == models.StatusCancelled && oldStatus != models.StatusCancelled:
			// Return every line's quantity to inventory. No ceiling on
			// restock.
			for _, detail := range order.Details {
				product, err := tx.ProductByID(detail.ProductID)
				if err != nil {
					return err
				}
				if err := tx.SetProductStock(product.ID, product.Stock+detail.Quantity); err != nil {
					return err
				}
			}

		case oldStatus == models.StatusCancelled && newStatus != models.StatusCancelled:
			// Reactivation reserves the lines again; any shortfall aborts
			// the whole transition.
			for _, detail := range order.Details {
				product, err := tx.ProductByID(detail.ProductID)
				if err != nil {
					return err
				}
				if product.Stock < detail.Quantity {
					return &ReactivationStockError{Product: product.Name}
				}
				if err := tx.SetProductStock(product.ID, product.Stock-detail.Quantity); err != nil {
					return err
				}
			}
		}

		return tx.SetOrderStatus(orderID, newStatus)
	})
}
