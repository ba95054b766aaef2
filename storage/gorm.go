package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oakline/storefront/models"
)

// GormStore is the Postgres-backed Store. Inside a transaction scope,
// product reads take a row lock (SELECT ... FOR UPDATE) so the
// read-then-write stock discipline holds under concurrent placements.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) InTransaction(fn func(tx Store) error) error {
	if s.inTx {
		// Already inside a scope; run in place.
		return fn(s)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) ProductByID(id uint) (*models.Product, error) {
	var product models.Product
	q := s.db
	if s.inTx {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (s *GormStore) SetProductStock(id uint, stock int) error {
	res := s.db.Model(&models.Product{}).Where("id = ?", id).Update("stock", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

func (s *GormStore) CartForUser(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cart = models.Cart{UserID: userID}
		if err := s.db.Create(&cart).Error; err != nil {
			return nil, err
		}
		return &cart, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *GormStore) CartWithItems(userID uint) (*models.Cart, error) {
	var cart models.Cart
	err := s.db.Preload("Items.Product").Where("user_id = ?", userID).First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (s *GormStore) CartItem(cartID, productID uint) (*models.CartItem, error) {
	var item models.CartItem
	err := s.db.Where("cart_id = ? AND product_id = ?", cartID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *GormStore) SaveCartItem(item *models.CartItem) error {
	return s.db.Save(item).Error
}

func (s *GormStore) DeleteCartItem(cartID, productID uint) error {
	res := s.db.Where("cart_id = ? AND product_id = ?", cartID, productID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (s *GormStore) ClearCartItems(cartID uint) error {
	return s.db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

func (s *GormStore) CreateOrder(order *models.Order) error {
	return s.db.Create(order).Error
}

func (s *GormStore) OrderWithDetails(orderID uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Details.Product").First(&order, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *GormStore) OrdersForUser(userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Details.Product").Where("user_id = ?", userID).
		Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *GormStore) AllOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("Details.Product").Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *GormStore) SetOrderStatus(orderID uint, status models.OrderStatus) error {
	res := s.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrOrderNotFound
	}
	return nil
}
