// Package scan turns scanned or typed barcodes into stock-aware order
// mutations. Stock moves with the order: adding or growing a line decrements
// catalog stock, shrinking or removing a line returns it. A stock update
// that fails leaves the order untouched.
package scan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tillworks/posledger/internal/checkout"
	"github.com/tillworks/posledger/internal/domain/order"
	"github.com/tillworks/posledger/internal/domain/product"
	"github.com/tillworks/posledger/pkg/observable"
)

// Bloom filter sizing for the barcode pre-filter. A false positive just
// costs one store lookup; a small-business catalog stays far below capacity.
const (
	filterMinCapacity = 4096
	filterFPR         = 0.01
)

// ErrScannerInactive is returned when a scan arrives while a previous
// not-found resolution is still pending, to prevent double-scanning during
// the operator's decision.
var ErrScannerInactive = errors.New("scanner inactive: not-found resolution pending")

// OutOfStockError reports that the catalog cannot cover the requested
// quantity. No order mutation was applied.
type OutOfStockError struct {
	Barcode   string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %s, available %s",
		e.Barcode, e.Requested, e.Available)
}

// EventKind discriminates scanner events.
type EventKind string

const (
	EventAdded      EventKind = "added"
	EventNotFound   EventKind = "not_found"
	EventOutOfStock EventKind = "out_of_stock"
)

// Event is published for every scan resolution so UI screens can react
// without holding references into the resolver.
type Event struct {
	Kind      EventKind
	Barcode   string
	Product   *product.Product
	Requested decimal.Decimal
	Available decimal.Decimal
}

// Resolver resolves barcodes against the catalog and delegates accepted
// scans to the checkout service.
type Resolver struct {
	products product.Repository
	cart     *checkout.Service
	events   *observable.Stream[Event]
	lg       *zap.Logger

	active atomic.Bool

	mu     sync.RWMutex
	filter *bloom.BloomFilter
}

// NewResolver creates a Resolver. The barcode pre-filter is empty until
// WarmFilter runs; until then every scan goes to the store.
func NewResolver(products product.Repository, cart *checkout.Service, lg *zap.Logger) *Resolver {
	r := &Resolver{
		products: products,
		cart:     cart,
		events:   observable.NewStream[Event](),
		lg:       lg,
	}
	r.active.Store(true)
	return r
}

// Events exposes the scanner event stream.
func (r *Resolver) Events() *observable.Stream[Event] {
	return r.events
}

// Active reports whether the scanner currently accepts scans.
func (r *Resolver) Active() bool {
	return r.active.Load()
}

// ResolveNotFoundPending re-activates the scanner once the operator has
// dealt with a not-found dialog.
func (r *Resolver) ResolveNotFoundPending() {
	r.active.Store(true)
}

// WarmFilter loads every catalog barcode into the bloom pre-filter so that
// definite misses skip the store entirely.
func (r *Resolver) WarmFilter(ctx context.Context) error {
	all, err := r.products.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list products")
	}

	capacity := uint(len(all))
	if capacity < filterMinCapacity {
		capacity = filterMinCapacity
	}
	f := bloom.NewWithEstimates(capacity, filterFPR)
	for _, p := range all {
		f.AddString(p.Barcode)
	}

	r.mu.Lock()
	r.filter = f
	r.mu.Unlock()

	r.lg.Info("barcode filter warmed", zap.Int("products", len(all)))
	return nil
}

// NoteBarcode registers a barcode created after the filter was warmed.
func (r *Resolver) NoteBarcode(barcode string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.filter != nil {
		r.filter.AddString(barcode)
	}
}

// CreateProduct adds a catalog entry for a barcode the catalog did not know,
// registers the barcode with the pre-filter and re-activates the scanner.
// This is the accept path of the not-found dialog; p.ID is set on return.
func (r *Resolver) CreateProduct(ctx context.Context, p *product.Product) error {
	id, err := r.products.Create(ctx, p)
	if err != nil {
		return errors.Wrapf(err, "create product %q", p.Barcode)
	}
	p.ID = id
	r.NoteBarcode(p.Barcode)
	r.ResolveNotFoundPending()
	return nil
}

// mightExist consults the pre-filter; true means "ask the store".
func (r *Resolver) mightExist(barcode string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter == nil || r.filter.TestString(barcode)
}

// Resolve looks up barcode and, when found with sufficient stock, decrements
// stock and adds the product to the current order. A miss deactivates the
// scanner and publishes a not-found event so the operator can decide whether
// to create a catalog entry.
func (r *Resolver) Resolve(ctx context.Context, barcode string, quantity decimal.Decimal) error {
	if !r.active.Load() {
		return ErrScannerInactive
	}

	if !r.mightExist(barcode) {
		return r.notFound(barcode)
	}

	p, err := r.products.FindByBarcode(ctx, barcode)
	switch {
	case errors.Is(err, product.ErrNotFound):
		return r.notFound(barcode)
	case err != nil:
		return errors.Wrapf(err, "find product %s", barcode)
	}

	if p.Stock.LessThan(quantity) {
		r.events.Publish(Event{
			Kind:      EventOutOfStock,
			Barcode:   barcode,
			Product:   p,
			Requested: quantity,
			Available: p.Stock,
		})
		return &OutOfStockError{Barcode: barcode, Requested: quantity, Available: p.Stock}
	}

	// Stock first: if this write fails the order must not change.
	if err := r.products.UpdateStock(ctx, p.ID, p.Stock.Sub(quantity)); err != nil {
		return errors.Wrapf(err, "decrement stock %s", barcode)
	}
	r.cart.AddProduct(*p, quantity)

	r.events.Publish(Event{
		Kind:      EventAdded,
		Barcode:   barcode,
		Product:   p,
		Requested: quantity,
	})
	return nil
}

func (r *Resolver) notFound(barcode string) error {
	r.active.Store(false)
	r.events.Publish(Event{Kind: EventNotFound, Barcode: barcode})
	r.lg.Info("scan did not match any product", zap.String("barcode", barcode))
	return errors.Wrapf(product.ErrNotFound, "barcode %s", barcode)
}

// ChangeQuantity sets a line item's quantity while keeping catalog stock in
// sync. Increases are checked against available stock and applied to the
// catalog before the order; decreases return stock first. If the product was
// deleted from the catalog the order-side change still applies.
//
// item may be a stale copy; the live line is re-read first so that a line no
// longer in the order fails before any stock is moved.
func (r *Resolver) ChangeQuantity(ctx context.Context, item order.LineItem, quantity decimal.Decimal) error {
	live, ok := r.cart.Item(item.ID)
	if !ok {
		r.lg.Warn("quantity change for a line no longer in the order",
			zap.Int64("item_id", item.ID))
		return checkout.ErrStaleItem
	}

	delta := quantity.Sub(live.Quantity)
	if delta.IsZero() {
		return nil
	}

	if live.ProductID > 0 {
		p, err := r.products.FindByID(ctx, live.ProductID)
		switch {
		case errors.Is(err, product.ErrNotFound):
			r.lg.Warn("quantity change for deleted product, skipping stock sync",
				zap.Int64("product_id", live.ProductID))
		case err != nil:
			return errors.Wrapf(err, "find product %d", live.ProductID)
		case delta.IsPositive() && p.Stock.LessThan(delta):
			r.events.Publish(Event{
				Kind:      EventOutOfStock,
				Barcode:   p.Barcode,
				Product:   p,
				Requested: delta,
				Available: p.Stock,
			})
			return &OutOfStockError{Barcode: p.Barcode, Requested: delta, Available: p.Stock}
		default:
			if err := r.products.UpdateStock(ctx, p.ID, p.Stock.Sub(delta)); err != nil {
				return errors.Wrapf(err, "adjust stock %d", p.ID)
			}
		}
	}

	return r.cart.UpdateQuantity(live.ID, quantity)
}

// Remove removes a line item from the order and returns its full quantity to
// catalog stock. A line no longer in the order is a no-op, stock included.
func (r *Resolver) Remove(ctx context.Context, item order.LineItem) error {
	live, ok := r.cart.Item(item.ID)
	if !ok {
		return nil
	}

	if live.ProductID > 0 {
		p, err := r.products.FindByID(ctx, live.ProductID)
		switch {
		case errors.Is(err, product.ErrNotFound):
			r.lg.Warn("removal of line for deleted product, skipping stock sync",
				zap.Int64("product_id", live.ProductID))
		case err != nil:
			return errors.Wrapf(err, "find product %d", live.ProductID)
		default:
			if err := r.products.UpdateStock(ctx, p.ID, p.Stock.Add(live.Quantity)); err != nil {
				return errors.Wrapf(err, "return stock %d", p.ID)
			}
		}
	}

	r.cart.RemoveItem(live.ID)
	return nil
}
