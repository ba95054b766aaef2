package models

// Category represents a product category.
// Deleting a category leaves its products uncategorized.
type Category struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;not null"`
	Description string `gorm:"type:text"`
}

func (c *Category) TableName() string {
	return "categories"
}
