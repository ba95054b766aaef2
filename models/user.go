package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account in the store. Password always holds a bcrypt hash,
// never the plain text. The shipping fields are defaults used to pre-fill
// checkout; the authoritative shipping data lives on each Order.
type User struct {
	ID              uint   `gorm:"column:user_id;primaryKey"`
	Username        string `gorm:"uniqueIndex;not null"`
	Email           string `gorm:"uniqueIndex;not null"`
	Password        string `gorm:"not null" json:"-"`
	Role            string `gorm:"not null;default:user"`
	FirstName       string
	LastName        string
	ShippingAddress string
	City            string
	PostalCode      string
	Country         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) TableName() string {
	return "users"
}
