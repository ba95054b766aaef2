package models

import (
	"errors"

	"gorm.io/gorm"
)

type ProductsRepository struct {
	db *gorm.DB
}

// ErrProductNotFound is returned when a product is not found.
var ErrProductNotFound = errors.New("product not found")

// ErrProductInUse is returned when a product cannot be deleted because
// order lines still reference it.
var ErrProductInUse = errors.New("product is referenced by existing orders")

type ProductFilters struct {
	Search     string
	CategoryID uint
	LowStock   bool
}

// Products with at most this much stock count as low-stock.
const lowStockCeiling = 3

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

func (r *ProductsRepository) GetFilteredProducts(offset, limit int, filters ProductFilters) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.Model(&Product{}).Preload("Category")

	// Filter
	if filters.Search != "" {
		query = query.Where("products.name ILIKE ?", "%"+filters.Search+"%")
	}
	if filters.CategoryID != 0 {
		query = query.Where("products.category_id = ?", filters.CategoryID)
	}
	if filters.LowStock {
		query = query.Where("products.stock <= ? AND products.stock > 0", lowStockCeiling)
	}

	// Count total after filtering
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination
	if err := query.Order("products.name ASC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *ProductsRepository) GetByID(id uint) (*Product, error) {
	var product Product
	if err := r.db.
		Preload("Category").
		First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err // Other DB error
	}
	return &product, nil
}

func (r *ProductsRepository) CreateProduct(product *Product) error {
	return r.db.Create(product).Error
}

func (r *ProductsRepository) UpdateProduct(product *Product) error {
	res := r.db.Model(&Product{}).Where("id = ?", product.ID).Updates(map[string]any{
		"name":        product.Name,
		"description": product.Description,
		"price":       product.Price,
		"stock":       product.Stock,
		"image":       product.Image,
		"category_id": product.CategoryID,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a product and its cart lines. Deletion is refused
// while order details still reference the product.
func (r *ProductsRepository) DeleteProduct(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&OrderDetail{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductInUse
		}
		if err := tx.Where("product_id = ?", id).Delete(&CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}
