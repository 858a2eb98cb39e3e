package report

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tillworks/posledger/internal/domain/order"
)

type mockSource struct {
	orders  map[int64][]order.Order
	lines   map[int64][]order.LineItem
	updated []order.Order
}

func (m *mockSource) OrdersByUser(_ context.Context, userID int64) ([]order.Order, error) {
	return m.orders[userID], nil
}

func (m *mockSource) LineItemsByOrder(_ context.Context, orderID int64) ([]order.LineItem, error) {
	return m.lines[orderID], nil
}

func (m *mockSource) UpdateOrder(_ context.Context, o *order.Order) error {
	m.updated = append(m.updated, *o)
	return nil
}

func line(qty, sell, buy string) order.LineItem {
	return order.LineItem{
		Quantity:  decimal.RequireFromString(qty),
		SellPrice: decimal.RequireFromString(sell),
		BuyPrice:  decimal.RequireFromString(buy),
	}
}

func TestProfit_SumsOverAllOrders(t *testing.T) {
	src := &mockSource{
		orders: map[int64][]order.Order{
			1: {{ID: 10, UserID: 1}, {ID: 11, UserID: 1}},
		},
		lines: map[int64][]order.LineItem{
			10: {line("2", "10.00", "6.00"), line("1", "5.00", "3.00")},
			11: {line("0.5", "4.00", "2.00")},
		},
	}
	svc := NewService(src, zap.NewNop())

	got, err := svc.Profit(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 2, got.Orders)
	// revenue: 2*10 + 1*5 + 0.5*4 = 27; cost: 2*6 + 1*3 + 0.5*2 = 16
	assert.True(t, got.Revenue.Equal(decimal.RequireFromString("27.00")))
	assert.True(t, got.Cost.Equal(decimal.RequireFromString("16.00")))
	assert.True(t, got.Profit.Equal(decimal.RequireFromString("11.00")))
}

func TestProfit_NoOrders(t *testing.T) {
	svc := NewService(&mockSource{}, zap.NewNop())

	got, err := svc.Profit(context.Background(), 9)
	require.NoError(t, err)

	assert.Zero(t, got.Orders)
	assert.True(t, got.Profit.IsZero())
}

func TestSettle_MarksPaid(t *testing.T) {
	src := &mockSource{}
	svc := NewService(src, zap.NewNop())

	err := svc.Settle(context.Background(), order.Order{ID: 5, Total: decimal.NewFromInt(10)})
	require.NoError(t, err)

	require.Len(t, src.updated, 1)
	assert.True(t, src.updated[0].Paid)
}

func TestSettle_RejectsUnpersistedOrder(t *testing.T) {
	src := &mockSource{}
	svc := NewService(src, zap.NewNop())

	err := svc.Settle(context.Background(), order.Order{ID: 0})
	require.Error(t, err)
	assert.Empty(t, src.updated)
}

func TestSettle_AlreadyPaidIsNoOp(t *testing.T) {
	src := &mockSource{}
	svc := NewService(src, zap.NewNop())

	err := svc.Settle(context.Background(), order.Order{ID: 5, Paid: true})
	require.NoError(t, err)
	assert.Empty(t, src.updated)
}
