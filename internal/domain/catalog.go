package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Category groups products in the catalog
type Category struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:100;not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName Specify table name
func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Product catalog item. Price is in the shop currency.
type Product struct {
	ID                  string          `gorm:"primaryKey;size:36" json:"id"`
	Name                string          `gorm:"size:255;not null;index" json:"name"`
	Description         string          `gorm:"type:text" json:"description"`
	DetailedDescription string          `gorm:"type:text" json:"detailed_description"`
	Price               decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Sku                 string          `gorm:"size:100;uniqueIndex;not null" json:"sku"`
	StockQuantity       int             `gorm:"not null;default:0" json:"stock_quantity"`
	CategoryID          *string         `gorm:"size:36;index" json:"category_id"`
	Category            *Category       `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	ImageURL            string          `gorm:"size:1000" json:"image_url"`
	IsActive            bool            `gorm:"not null" json:"is_active"`
	Specifications      string          `gorm:"type:text" json:"specifications"` // raw JSON
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
