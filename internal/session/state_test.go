package session

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tillworks/posledger/internal/domain/order"
)

func testItems() []order.LineItem {
	return []order.LineItem{
		{
			ID:          order.TempIDBase + 1,
			ProductID:   1,
			ProductName: "Flour 1kg",
			Barcode:     "200001",
			Quantity:    decimal.NewFromInt(2),
			SellPrice:   decimal.RequireFromString("3.50"),
			BuyPrice:    decimal.RequireFromString("2.10"),
		},
	}
}

func TestNewState_FreshEmptyOrder(t *testing.T) {
	st := NewState(9)

	o := st.Order().Get()
	assert.EqualValues(t, 0, o.ID)
	assert.EqualValues(t, 0, o.CustomerID)
	assert.EqualValues(t, 9, o.UserID)
	assert.False(t, o.CreatedAt.IsZero())
	assert.True(t, o.Total.IsZero())
	assert.Empty(t, st.Items().Get())
}

func TestNextTempID_MonotonicAboveBase(t *testing.T) {
	st := NewState(1)

	first := st.NextTempID()
	second := st.NextTempID()

	assert.Greater(t, first, order.TempIDBase)
	assert.Equal(t, first+1, second)
}

func TestStash_StoresDeepCopies(t *testing.T) {
	st := NewState(1)
	items := testItems()
	o := order.Order{CustomerID: 5, UserID: 1, Total: decimal.RequireFromString("7.00")}

	st.Stash(5, o, items)

	// Mutating the live aggregate must not corrupt the stash.
	items[0].Quantity = decimal.NewFromInt(99)

	_, got, ok := st.Stashed(5)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestStashed_ReturnsCopies(t *testing.T) {
	st := NewState(1)
	st.Stash(5, order.Order{CustomerID: 5}, testItems())

	_, first, ok := st.Stashed(5)
	require.True(t, ok)
	first[0].Quantity = decimal.NewFromInt(42)

	_, second, ok := st.Stashed(5)
	require.True(t, ok)
	assert.True(t, second[0].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestStashed_MissingCustomer(t *testing.T) {
	st := NewState(1)

	_, _, ok := st.Stashed(404)
	assert.False(t, ok)
	assert.False(t, st.HasStashed(404))
}

func TestDropStashed(t *testing.T) {
	st := NewState(1)
	st.Stash(5, order.Order{CustomerID: 5}, testItems())
	st.Stash(6, order.Order{CustomerID: 6}, nil)

	st.DropStashed(5)
	assert.False(t, st.HasStashed(5))
	assert.True(t, st.HasStashed(6))

	st.DropAllStashed()
	assert.False(t, st.HasStashed(6))
}
