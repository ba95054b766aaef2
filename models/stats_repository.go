package models

import "gorm.io/gorm"

// Stats are the counts shown on the admin dashboard.
type Stats struct {
	Users      int64 `json:"users"`
	Products   int64 `json:"products"`
	Orders     int64 `json:"orders"`
	Categories int64 `json:"categories"`
}

type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{
		db: db,
	}
}

func (r *StatsRepository) GetStats() (*Stats, error) {
	var stats Stats
	counts := []struct {
		model any
		dst   *int64
	}{
		{&User{}, &stats.Users},
		{&Product{}, &stats.Products},
		{&Order{}, &stats.Orders},
		{&Category{}, &stats.Categories},
	}
	for _, c := range counts {
		if err := r.db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}

// GetLowStockProducts lists products running out, for the dashboard.
func (r *StatsRepository) GetLowStockProducts(limit int) ([]Product, error) {
	var products []Product
	if err := r.db.Where("stock < ?", 5).Order("stock ASC").Limit(limit).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
