package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TempIDBase is the lower bound of the temporary line-item id range. Ids at
// or above this value identify line items that exist only in memory;
// database-assigned ids start at 1 and never reach this range, so the two
// kinds of identity cannot collide.
const TempIDBase int64 = 1 << 40

// Order is the header of a sale. ID is 0 while the order is still being
// edited and is assigned by the store on confirm.
type Order struct {
	ID         int64
	CustomerID int64
	UserID     int64
	CreatedAt  time.Time
	Total      decimal.Decimal
	Paid       bool
}

// LineItem is one product entry within an order. ProductName, Barcode,
// SellPrice and BuyPrice are snapshots captured when the line was added:
// later catalog edits (or even deleting the product, which zeroes ProductID)
// must not change what the customer was charged.
type LineItem struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Barcode     string
	Quantity    decimal.Decimal
	SellPrice   decimal.Decimal
	BuyPrice    decimal.Decimal
}

// IsPersisted reports whether the line item carries a database-assigned id.
func (li LineItem) IsPersisted() bool {
	return li.ID > 0 && li.ID < TempIDBase
}

// LineTotal returns quantity times the captured sell price.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.SellPrice)
}

// CloneLineItems returns a deep copy of items. LineItem fields are values
// (decimal.Decimal is immutable), so copying the slice elements is enough,
// but callers must go through here rather than alias the original slice.
func CloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

// Repository defines persistence operations for orders and their line items.
// Writes are serialized per store by the worker queue; cross-table atomicity
// for confirm is provided by an explicit transaction scope.
type Repository interface {
	InsertOrder(ctx context.Context, o *Order) (int64, error)
	UpdateOrder(ctx context.Context, o *Order) error
	InsertLineItem(ctx context.Context, li *LineItem) (int64, error)
	UpdateLineItem(ctx context.Context, li *LineItem) error
	DeleteLineItem(ctx context.Context, id int64) error

	OrdersByUser(ctx context.Context, userID int64) ([]Order, error)
	LineItemsByOrder(ctx context.Context, orderID int64) ([]LineItem, error)
}
