package domain

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem one product in a user's cart, unique per (user, product)
type CartItem struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	UserID    string   `gorm:"size:36;not null;uniqueIndex:idx_cart_user_product" json:"user_id"`
	ProductID string   `gorm:"size:36;not null;uniqueIndex:idx_cart_user_product" json:"product_id"`
	Quantity  int      `gorm:"not null;default:1" json:"quantity"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName Specify table name
func (CartItem) TableName() string {
	return "cart_items"
}

func (c *CartItem) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// WishlistItem saved product, unique per (user, product)
type WishlistItem struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	UserID    string   `gorm:"size:36;not null;uniqueIndex:idx_wishlist_user_product" json:"user_id"`
	ProductID string   `gorm:"size:36;not null;uniqueIndex:idx_wishlist_user_product" json:"product_id"`
	Product   *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName Specify table name
func (WishlistItem) TableName() string {
	return "wishlist_items"
}

func (w *WishlistItem) BeforeCreate(*gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}
