package sqlite

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/tillworks/posledger/internal/domain/order"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by SQLite.
type OrderRepository struct {
	store *Store
}

// NewOrderRepository returns an OrderRepository using the given store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

// InsertOrder persists a new order header and returns the assigned id. The
// caller-side id (always 0 for an in-progress order) is ignored.
func (r *OrderRepository) InsertOrder(ctx context.Context, o *order.Order) (int64, error) {
	res, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO orders (customer_id, user_id, created_at, total, paid)
		 VALUES (?, ?, ?, ?, ?)`,
		o.CustomerID, o.UserID, o.CreatedAt.UTC(), o.Total.String(), o.Paid)
	if err != nil {
		return 0, errors.Wrap(err, "insert order")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "order insert id")
	}
	return id, nil
}

// UpdateOrder rewrites a persisted order header.
func (r *OrderRepository) UpdateOrder(ctx context.Context, o *order.Order) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`UPDATE orders SET customer_id = ?, user_id = ?, total = ?, paid = ? WHERE id = ?`,
		o.CustomerID, o.UserID, o.Total.String(), o.Paid, o.ID)
	if err != nil {
		return errors.Wrapf(err, "update order %d", o.ID)
	}
	return nil
}

// InsertLineItem persists a new line item and returns the assigned id. The
// caller must never pass a temporary id here; the id column is ignored.
func (r *OrderRepository) InsertLineItem(ctx context.Context, li *order.LineItem) (int64, error) {
	res, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO order_items (order_id, product_id, product_name, barcode, quantity, sell_price, buy_price)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		li.OrderID, nullableID(li.ProductID), li.ProductName, li.Barcode,
		li.Quantity.String(), li.SellPrice.String(), li.BuyPrice.String())
	if err != nil {
		return 0, errors.Wrap(err, "insert line item")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "line item insert id")
	}
	return id, nil
}

// UpdateLineItem rewrites a persisted line item.
func (r *OrderRepository) UpdateLineItem(ctx context.Context, li *order.LineItem) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`UPDATE order_items
		 SET order_id = ?, product_id = ?, product_name = ?, barcode = ?, quantity = ?, sell_price = ?, buy_price = ?
		 WHERE id = ?`,
		li.OrderID, nullableID(li.ProductID), li.ProductName, li.Barcode,
		li.Quantity.String(), li.SellPrice.String(), li.BuyPrice.String(), li.ID)
	if err != nil {
		return errors.Wrapf(err, "update line item %d", li.ID)
	}
	return nil
}

// DeleteLineItem removes a persisted line item.
func (r *OrderRepository) DeleteLineItem(ctx context.Context, id int64) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`DELETE FROM order_items WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete line item %d", id)
	}
	return nil
}

// OrdersByUser returns all persisted orders rung up by the given clerk,
// newest first.
func (r *OrderRepository) OrdersByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.store.q(ctx).QueryContext(ctx,
		`SELECT id, customer_id, user_id, created_at, total, paid
		 FROM orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "orders by user %d", userID)
	}
	defer func() { _ = rows.Close() }()

	var out []order.Order
	for rows.Next() {
		var (
			o        order.Order
			created  time.Time
			totalRaw string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.UserID, &created, &totalRaw, &o.Paid); err != nil {
			return nil, errors.Wrap(err, "scan order")
		}
		o.CreatedAt = created
		if o.Total, err = decimal.NewFromString(totalRaw); err != nil {
			return nil, errors.Wrapf(err, "parse total %q", totalRaw)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// LineItemsByOrder returns the line items of a persisted order.
func (r *OrderRepository) LineItemsByOrder(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	rows, err := r.store.q(ctx).QueryContext(ctx,
		`SELECT id, order_id, COALESCE(product_id, 0), product_name, barcode, quantity, sell_price, buy_price
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "line items by order %d", orderID)
	}
	defer func() { _ = rows.Close() }()

	var out []order.LineItem
	for rows.Next() {
		var (
			li                      order.LineItem
			qtyRaw, sellRaw, buyRaw string
		)
		if err := rows.Scan(&li.ID, &li.OrderID, &li.ProductID, &li.ProductName, &li.Barcode,
			&qtyRaw, &sellRaw, &buyRaw); err != nil {
			return nil, errors.Wrap(err, "scan line item")
		}
		if li.Quantity, err = decimal.NewFromString(qtyRaw); err != nil {
			return nil, errors.Wrapf(err, "parse quantity %q", qtyRaw)
		}
		if li.SellPrice, err = decimal.NewFromString(sellRaw); err != nil {
			return nil, errors.Wrapf(err, "parse sell_price %q", sellRaw)
		}
		if li.BuyPrice, err = decimal.NewFromString(buyRaw); err != nil {
			return nil, errors.Wrapf(err, "parse buy_price %q", buyRaw)
		}
		out = append(out, li)
	}
	return out, rows.Err()
}

// nullableID maps 0 to NULL for columns referencing possibly-deleted rows.
func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
