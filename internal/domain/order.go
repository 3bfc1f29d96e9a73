package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses
const (
	OrderPending   = "pending"
	OrderConfirmed = "confirmed"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// OrderStatuses lists every accepted order status
var OrderStatuses = []string{OrderPending, OrderConfirmed, OrderShipped, OrderDelivered, OrderCancelled}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s string) bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Order header. Totals are computed once at placement and never recalculated.
type Order struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	OrderNo         string          `gorm:"size:32;uniqueIndex" json:"order_no"`
	UserID          string          `gorm:"size:36;index;not null" json:"user_id"`
	Status          string          `gorm:"size:50;index;not null;default:pending" json:"status"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	ShippingCost    decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"shipping_cost"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total_amount"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	DeliveryNotes   string          `gorm:"type:text" json:"delivery_notes"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName Specify table name
func (Order) TableName() string {
	return "orders"
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem line of an order with the price frozen at purchase time
type OrderItem struct {
	ID              string          `gorm:"primaryKey;size:36" json:"id"`
	OrderID         string          `gorm:"size:36;index;not null" json:"order_id"`
	ProductID       string          `gorm:"size:36;index;not null" json:"product_id"`
	ProductName     string          `gorm:"size:255" json:"product_name"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price_at_purchase"`
}

// TableName Specify table name
func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// LineTotal price_at_purchase × quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
