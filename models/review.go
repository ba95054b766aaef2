package models

import "time"

// Review is a user's rating of a product. Rating is bounded 1..3 and the
// comment is required; both are enforced at the handler boundary.
type Review struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;index"`
	ProductID uint   `gorm:"not null;index"`
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"type:text;not null"`
	CreatedAt time.Time
}

func (r *Review) TableName() string {
	return "reviews"
}
