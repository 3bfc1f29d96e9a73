package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/domain"
	"github.com/dayyanintl/surgishop/internal/events"
)

// MaxLineQuantity caps the quantity of a single product in one order.
const MaxLineQuantity = 100000

type LineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1,max=100000"`
}

type PlaceOrderRequest struct {
	Items           []LineRequest `json:"items" validate:"required,min=1,dive"`
	ShippingAddress string        `json:"shipping_address" validate:"required"`
	DeliveryNotes   string        `json:"delivery_notes"`
	// ClearCart removes the ordered products from the buyer's cart
	ClearCart bool `json:"clear_cart"`
}

// Totals of an order, rounded to cents.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// ListFilter narrows List. Empty fields match everything.
type ListFilter struct {
	UserID string
	Status string
	Offset int
	Limit  int
}

type Service struct {
	db       *gorm.DB
	taxRate  decimal.Decimal
	shipping decimal.Decimal
	node     *snowflake.Node
	bus      *events.Bus
	now      func() time.Time
}

// NewService builds the order service. bus may be nil.
func NewService(db *gorm.DB, shop config.ShopConfig, bus *events.Bus) (*Service, error) {
	node, err := snowflake.NewNode(shop.SnowflakeNode)
	if err != nil {
		return nil, errors.Wrap(err, "snowflake node")
	}
	return &Service{
		db:       db,
		taxRate:  decimal.NewFromFloat(shop.TaxRate),
		shipping: decimal.NewFromFloat(shop.ShippingCost),
		node:     node,
		bus:      bus,
		now:      time.Now,
	}, nil
}

// ComputeTotals applies tax and shipping to subtotal.
func (s *Service) ComputeTotals(subtotal decimal.Decimal) Totals {
	subtotal = subtotal.Round(2)
	tax := subtotal.Mul(s.taxRate).Round(2)
	shipping := s.shipping.Round(2)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

// mergeLines validates quantities and folds repeated products into one line,
// keeping the order of first appearance.
func mergeLines(items []LineRequest) ([]LineRequest, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	index := make(map[string]int, len(items))
	merged := make([]LineRequest, 0, len(items))
	for _, it := range items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity {
			return nil, errInvalidQuantity(it.ProductID)
		}
		if i, ok := index[it.ProductID]; ok {
			// both operands are bounded, the sum cannot wrap
			if merged[i].Quantity+it.Quantity > MaxLineQuantity {
				return nil, errInvalidQuantity(it.ProductID)
			}
			merged[i].Quantity += it.Quantity
			continue
		}
		index[it.ProductID] = len(merged)
		merged = append(merged, it)
	}
	return merged, nil
}

// PlaceOrder checks stock, freezes prices and decrements inventory in one transaction.
func (s *Service) PlaceOrder(ctx context.Context, user *domain.User, req PlaceOrderRequest, ip string) (*domain.Order, error) {
	if !user.IsVerified {
		return nil, ErrNotVerified
	}
	if req.ShippingAddress == "" {
		return nil, ErrNoAddress
	}
	lines, err := mergeLines(req.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNo:         s.node.Generate().String(),
		UserID:          user.ID,
		Status:          domain.OrderPending,
		ShippingAddress: req.ShippingAddress,
		DeliveryNotes:   req.DeliveryNotes,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subtotal := decimal.Zero
		items := make([]domain.OrderItem, 0, len(lines))
		for _, line := range lines {
			var product domain.Product
			if err := tx.Where("id = ?", line.ProductID).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errProductNotFound(line.ProductID)
				}
				return errors.Wrap(err, "load product")
			}
			if !product.IsActive {
				return errProductUnavailable(product.Name)
			}
			if product.StockQuantity < line.Quantity {
				return errInsufficientStock(product.Name)
			}
			item := domain.OrderItem{
				ProductID:       product.ID,
				ProductName:     product.Name,
				Quantity:        line.Quantity,
				PriceAtPurchase: product.Price,
			}
			subtotal = subtotal.Add(item.LineTotal())
			items = append(items, item)
		}

		totals := s.ComputeTotals(subtotal)
		order.Subtotal = totals.Subtotal
		order.Tax = totals.Tax
		order.ShippingCost = totals.Shipping
		order.TotalAmount = totals.Total
		order.Items = items

		if err := tx.Create(order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, item := range items {
			res := tx.Model(&domain.Product{}).
				Where("id = ? AND stock_quantity >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if res.Error != nil {
				return errors.Wrap(res.Error, "decrement stock")
			}
			if res.RowsAffected == 0 {
				return errInsufficientStock(item.ProductName)
			}
		}

		if req.ClearCart {
			ids := make([]string, 0, len(items))
			for _, item := range items {
				ids = append(ids, item.ProductID)
			}
			if err := tx.Where("user_id = ? AND product_id IN ?", user.ID, ids).
				Delete(&domain.CartItem{}).Error; err != nil {
				return errors.Wrap(err, "clear cart")
			}
		}

		details := fmt.Sprintf("Order %s placed, %d items, total %s", order.OrderNo, len(items), order.TotalAmount.StringFixed(2))
		return tx.Create(domain.NewAuditLog(user.ID, domain.ActionPlaceOrder, details, ip)).Error
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("order placed",
		zap.String("namespace", "orders"),
		zap.String("order_no", order.OrderNo),
		zap.String("user_id", user.ID),
		zap.String("total", order.TotalAmount.StringFixed(2)))

	if s.bus != nil {
		s.bus.Publish(events.TopicOrderPlaced, events.OrderPlaced{
			OrderID:     order.ID,
			OrderNo:     order.OrderNo,
			UserID:      user.ID,
			TotalAmount: order.TotalAmount,
			ItemCount:   len(order.Items),
			OccurredAt:  s.now(),
		})
	}
	return order, nil
}

// UpdateStatus moves an order to status. Cancelling returns the stock of
// every line; a cancelled order cannot change again.
func (s *Service) UpdateStatus(ctx context.Context, actor *domain.User, orderID, status, ip string) (*domain.Order, error) {
	if !domain.ValidOrderStatus(status) {
		return nil, errInvalidStatus(status)
	}

	var order domain.Order
	var previous string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").Where("id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return errors.Wrap(err, "load order")
		}
		previous = order.Status
		if previous == domain.OrderCancelled {
			return ErrOrderClosed
		}
		if previous == status {
			return nil
		}

		if status == domain.OrderCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&domain.Product{}).Where("id = ?", item.ProductID).
					UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
					return errors.Wrap(err, "restock")
				}
			}
		}

		order.Status = status
		if err := tx.Model(&order).Update("status", status).Error; err != nil {
			return errors.Wrap(err, "update status")
		}
		details := fmt.Sprintf("Order %s status changed from %s to %s", order.ID, previous, status)
		return tx.Create(domain.NewAuditLog(actor.ID, domain.ActionUpdateOrderStatus, details, ip)).Error
	})
	if err != nil {
		return nil, err
	}
	if previous == status {
		return &order, nil
	}

	zap.L().Info("order status changed",
		zap.String("namespace", "orders"),
		zap.String("order_no", order.OrderNo),
		zap.String("from", previous),
		zap.String("to", status),
		zap.String("actor", actor.ID))

	if s.bus != nil {
		var buyer domain.User
		if err := s.db.WithContext(ctx).Select("email").Where("id = ?", order.UserID).First(&buyer).Error; err != nil {
			zap.L().Warn("order buyer lookup failed", zap.String("namespace", "orders"), zap.Error(err))
		}
		s.bus.Publish(events.TopicOrderStatusChanged, events.OrderStatusChanged{
			OrderID:    order.ID,
			OrderNo:    order.OrderNo,
			UserID:     order.UserID,
			UserEmail:  buyer.Email,
			From:       previous,
			To:         status,
			ActorID:    actor.ID,
			OccurredAt: s.now(),
		})
	}
	return &order, nil
}

// Get loads one order with its items.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order
	if err := s.db.WithContext(ctx).Preload("Items").Where("id = ?", orderID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first with their items, and the unpaged total.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&domain.Order{})
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.Order
	q := query.Preload("Items").Order("created_at DESC").Offset(f.Offset)
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
