package stats

import (
	"context"
	"time"

	"github.com/araddon/dateparse"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/dayyanintl/surgishop/config"
	"github.com/dayyanintl/surgishop/internal/domain"
)

const recentOrderCount = 10

// Range limits order based figures. A zero bound is open.
type Range struct {
	From time.Time
	To   time.Time
}

// ParseRange accepts dates in any layout dateparse understands. A date
// without a time of day as the upper bound includes that whole day.
func ParseRange(from, to string) (Range, error) {
	var r Range
	var err error
	if from != "" {
		if r.From, err = dateparse.ParseLocal(from); err != nil {
			return r, errors.Wrapf(err, "invalid from date %q", from)
		}
	}
	if to != "" {
		if r.To, err = dateparse.ParseLocal(to); err != nil {
			return r, errors.Wrapf(err, "invalid to date %q", to)
		}
		if r.To.Hour() == 0 && r.To.Minute() == 0 && r.To.Second() == 0 && r.To.Nanosecond() == 0 {
			r.To = r.To.AddDate(0, 0, 1)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, errors.New("to date is before from date")
	}
	return r, nil
}

func (r Range) apply(db *gorm.DB) *gorm.DB {
	if !r.From.IsZero() {
		db = db.Where("created_at >= ?", r.From)
	}
	if !r.To.IsZero() {
		db = db.Where("created_at < ?", r.To)
	}
	return db
}

type Dashboard struct {
	TotalOrders       int64            `json:"totalOrders"`
	TotalRevenue      decimal.Decimal  `json:"totalRevenue"`
	TotalProfit       decimal.Decimal  `json:"totalProfit"`
	TotalUsers        int64            `json:"totalUsers"`
	TotalProducts     int64            `json:"totalProducts"`
	RecentOrders      []domain.Order   `json:"recentOrders"`
	AverageOrderValue decimal.Decimal  `json:"averageOrderValue"`
	MedianOrderValue  decimal.Decimal  `json:"medianOrderValue"`
	OrdersByStatus    map[string]int64 `json:"ordersByStatus"`
	LowStockProducts  []domain.Product `json:"lowStockProducts"`
}

type Service struct {
	db                *gorm.DB
	costRatio         decimal.Decimal
	lowStockThreshold int
}

func NewService(db *gorm.DB, shop config.ShopConfig) *Service {
	return &Service{
		db:                db,
		costRatio:         decimal.NewFromFloat(shop.CostRatio),
		lowStockThreshold: shop.LowStockThreshold,
	}
}

// Dashboard runs the aggregate queries concurrently.
func (s *Service) Dashboard(ctx context.Context, r Range) (*Dashboard, error) {
	d := &Dashboard{
		OrdersByStatus:   map[string]int64{},
		RecentOrders:     []domain.Order{},
		LowStockProducts: []domain.Product{},
	}
	g, ctx := errgroup.WithContext(ctx)

	orders := func() *gorm.DB {
		return r.apply(s.db.WithContext(ctx).Model(&domain.Order{}))
	}

	g.Go(func() error {
		return orders().Count(&d.TotalOrders).Error
	})
	g.Go(func() error {
		var sums struct {
			Revenue  decimal.Decimal
			Subtotal decimal.Decimal
		}
		err := orders().
			Select("COALESCE(SUM(total_amount), 0) AS revenue, COALESCE(SUM(subtotal), 0) AS subtotal").
			Scan(&sums).Error
		if err != nil {
			return err
		}
		d.TotalRevenue = sums.Revenue.Round(2)
		d.TotalProfit = sums.Revenue.Sub(sums.Subtotal.Mul(s.costRatio)).Round(2)
		return nil
	})
	g.Go(func() error {
		var totals []float64
		if err := orders().Pluck("total_amount", &totals).Error; err != nil {
			return err
		}
		d.AverageOrderValue, d.MedianOrderValue = orderValues(totals)
		return nil
	})
	g.Go(func() error {
		var rows []struct {
			Status string
			Count  int64
		}
		if err := orders().Select("status, COUNT(*) AS count").Group("status").Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			d.OrdersByStatus[row.Status] = row.Count
		}
		return nil
	})
	g.Go(func() error {
		return orders().Preload("Items").Order("created_at DESC").Limit(recentOrderCount).Find(&d.RecentOrders).Error
	})
	g.Go(func() error {
		return s.db.WithContext(ctx).Model(&domain.User{}).Count(&d.TotalUsers).Error
	})
	g.Go(func() error {
		return s.db.WithContext(ctx).Model(&domain.Product{}).Count(&d.TotalProducts).Error
	})
	g.Go(func() error {
		return s.db.WithContext(ctx).
			Where("is_active = ? AND stock_quantity <= ?", true, s.lowStockThreshold).
			Order("stock_quantity ASC").
			Find(&d.LowStockProducts).Error
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "dashboard stats")
	}
	return d, nil
}

func orderValues(totals []float64) (avg, median decimal.Decimal) {
	if len(totals) == 0 {
		return decimal.Zero, decimal.Zero
	}
	data := stats.LoadRawData(totals)
	if mean, err := data.Mean(); err == nil {
		avg = decimal.NewFromFloat(mean).Round(2)
	}
	if med, err := data.Median(); err == nil {
		median = decimal.NewFromFloat(med).Round(2)
	}
	return avg, median
}
