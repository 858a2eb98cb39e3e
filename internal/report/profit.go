// Package report computes accounting figures over persisted orders.
package report

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tillworks/posledger/internal/domain/order"
)

// Source is the persisted-order read/settle surface the reports run over.
// order.Repository satisfies it.
type Source interface {
	OrdersByUser(ctx context.Context, userID int64) ([]order.Order, error)
	LineItemsByOrder(ctx context.Context, orderID int64) ([]order.LineItem, error)
	UpdateOrder(ctx context.Context, o *order.Order) error
}

// UserProfit aggregates one clerk's sales figures.
type UserProfit struct {
	UserID  int64
	Orders  int
	Revenue decimal.Decimal
	Cost    decimal.Decimal
	Profit  decimal.Decimal
}

// Service computes reports.
type Service struct {
	src Source
	lg  *zap.Logger
}

// NewService creates a report Service over src.
func NewService(src Source, lg *zap.Logger) *Service {
	return &Service{src: src, lg: lg}
}

// Profit sums revenue, cost and profit over every order rung up by userID.
// Figures come from the captured line-item prices, so later catalog edits do
// not rewrite history.
func (s *Service) Profit(ctx context.Context, userID int64) (*UserProfit, error) {
	orders, err := s.src.OrdersByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "orders by user %d", userID)
	}

	out := &UserProfit{
		UserID:  userID,
		Orders:  len(orders),
		Revenue: decimal.Zero,
		Cost:    decimal.Zero,
		Profit:  decimal.Zero,
	}
	for _, o := range orders {
		items, err := s.src.LineItemsByOrder(ctx, o.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "line items for order %d", o.ID)
		}
		for _, li := range items {
			out.Revenue = out.Revenue.Add(li.Quantity.Mul(li.SellPrice))
			out.Cost = out.Cost.Add(li.Quantity.Mul(li.BuyPrice))
		}
	}
	out.Profit = out.Revenue.Sub(out.Cost)
	return out, nil
}

// Settle marks a persisted order as paid.
func (s *Service) Settle(ctx context.Context, o order.Order) error {
	if o.ID == 0 {
		return errors.New("cannot settle an unpersisted order")
	}
	if o.Paid {
		return nil
	}
	o.Paid = true
	if err := s.src.UpdateOrder(ctx, &o); err != nil {
		return errors.Wrapf(err, "settle order %d", o.ID)
	}
	s.lg.Info("order settled", zap.Int64("order_id", o.ID))
	return nil
}
