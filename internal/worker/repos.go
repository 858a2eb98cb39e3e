package worker

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/tillworks/posledger/internal/domain/order"
	"github.com/tillworks/posledger/internal/domain/product"
)

// Serialized repository decorators: writes go through the queue, reads pass
// straight to the inner repository.

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository funnels all order writes through one Serial queue.
type OrderRepository struct {
	inner order.Repository
	queue *Serial
}

// SerializeOrders wraps inner so its writes execute on queue.
func SerializeOrders(inner order.Repository, queue *Serial) *OrderRepository {
	return &OrderRepository{inner: inner, queue: queue}
}

func (r *OrderRepository) InsertOrder(ctx context.Context, o *order.Order) (int64, error) {
	var id int64
	err := r.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.inner.InsertOrder(ctx, o)
		return err
	})
	return id, err
}

func (r *OrderRepository) UpdateOrder(ctx context.Context, o *order.Order) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		return r.inner.UpdateOrder(ctx, o)
	})
}

func (r *OrderRepository) InsertLineItem(ctx context.Context, li *order.LineItem) (int64, error) {
	var id int64
	err := r.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.inner.InsertLineItem(ctx, li)
		return err
	})
	return id, err
}

func (r *OrderRepository) UpdateLineItem(ctx context.Context, li *order.LineItem) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		return r.inner.UpdateLineItem(ctx, li)
	})
}

func (r *OrderRepository) DeleteLineItem(ctx context.Context, id int64) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		return r.inner.DeleteLineItem(ctx, id)
	})
}

func (r *OrderRepository) OrdersByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	return r.inner.OrdersByUser(ctx, userID)
}

func (r *OrderRepository) LineItemsByOrder(ctx context.Context, orderID int64) ([]order.LineItem, error) {
	return r.inner.LineItemsByOrder(ctx, orderID)
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository funnels all catalog writes through one Serial queue.
type ProductRepository struct {
	inner product.Repository
	queue *Serial
}

// SerializeProducts wraps inner so its writes execute on queue.
func SerializeProducts(inner product.Repository, queue *Serial) *ProductRepository {
	return &ProductRepository{inner: inner, queue: queue}
}

func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	return r.inner.FindByBarcode(ctx, barcode)
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	return r.inner.FindByID(ctx, id)
}

func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	return r.inner.List(ctx)
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) (int64, error) {
	var id int64
	err := r.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		id, err = r.inner.Create(ctx, p)
		return err
	})
	return id, err
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		return r.inner.Update(ctx, p)
	})
}

func (r *ProductRepository) UpdateStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	return r.queue.Do(ctx, func(ctx context.Context) error {
		return r.inner.UpdateStock(ctx, id, stock)
	})
}
