package models

import "gorm.io/gorm"

type ReviewsRepository struct {
	db *gorm.DB
}

func NewReviewsRepository(db *gorm.DB) *ReviewsRepository {
	return &ReviewsRepository{
		db: db,
	}
}

func (r *ReviewsRepository) GetByProduct(productID uint) ([]Review, error) {
	var reviews []Review
	if err := r.db.Where("product_id = ?", productID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *ReviewsRepository) CreateReview(review *Review) error {
	return r.db.Create(review).Error
}
