package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/qyve/storefront/internal/orders"
	pkgerrors "github.com/qyve/storefront/pkg/errors"
)

const (
	summaryWindow     = 30 * 24 * time.Hour
	recentOrdersLimit = 5
	// DefaultLowStockThreshold is used when the caller passes none.
	DefaultLowStockThreshold = 5
)

type orderReader interface {
	Summary(ctx context.Context, since time.Time) (int64, decimal.Decimal, error)
	Recent(ctx context.Context, limit int) ([]orders.OrderDTO, error)
}

type stockCounter interface {
	CountLowStock(ctx context.Context, threshold int) (int64, error)
}

// Overview is the admin landing page payload.
type Overview struct {
	OrdersLast30Days  int64             `json:"orders_last_30_days"`
	RevenueLast30Days decimal.Decimal   `json:"revenue_last_30_days"`
	LowStockSizes     int64             `json:"low_stock_sizes"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	RecentOrders      []orders.OrderDTO `json:"recent_orders"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

type Service interface {
	Overview(ctx context.Context, lowStockThreshold int) (*Overview, error)
}

type service struct {
	orders orderReader
	stock  stockCounter
	now    func() time.Time
}

func NewService(orderSvc orderReader, stock stockCounter) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock counter required")
	}
	return &service{orders: orderSvc, stock: stock, now: time.Now}, nil
}

// Overview runs the three dashboard reads concurrently. The first failure
// cancels the others.
func (s *service) Overview(ctx context.Context, lowStockThreshold int) (*Overview, error) {
	if lowStockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must be non-negative")
	}
	if lowStockThreshold == 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}

	now := s.now().UTC()
	out := &Overview{LowStockThreshold: lowStockThreshold, GeneratedAt: now}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, revenue, err := s.orders.Summary(gctx, now.Add(-summaryWindow))
		if err != nil {
			return err
		}
		out.OrdersLast30Days = count
		out.RevenueLast30Days = revenue
		return nil
	})
	g.Go(func() error {
		count, err := s.stock.CountLowStock(gctx, lowStockThreshold)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count low stock sizes")
		}
		out.LowStockSizes = count
		return nil
	})
	g.Go(func() error {
		recent, err := s.orders.Recent(gctx, recentOrdersLimit)
		if err != nil {
			return err
		}
		out.RecentOrders = recent
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if out.RecentOrders == nil {
		out.RecentOrders = []orders.OrderDTO{}
	}
	return out, nil
}
