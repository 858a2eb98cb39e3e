// Package checkout implements the business mutations on the current
// in-progress order: adding and removing line items, quantity edits,
// switching the customer mid-order, and confirming the order into the store.
// Every mutation keeps the order total equal to the sum of its line totals.
package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/tillworks/posledger/internal/domain/order"
	"github.com/tillworks/posledger/internal/domain/product"
	"github.com/tillworks/posledger/internal/session"
)

// totalEpsilon bounds the tolerated drift between the stored order total and
// a recomputation over the line items. Disagreement beyond it indicates an
// earlier bug; it is corrected and logged, never surfaced as a failure.
var totalEpsilon = decimal.New(1, -3)

// TxRunner supplies an atomic scope for the header+items write sequence of a
// confirm. The sqlite store implements it with a real transaction.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// nopTx runs fn without any transaction. Used when no TxRunner is supplied.
type nopTx struct{}

func (nopTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service is the order-editing controller for the live session.
type Service struct {
	sessions *session.Manager
	orders   order.Repository
	tx       TxRunner
	lg       *zap.Logger
	tracer   trace.Tracer

	confirmed metric.Int64Counter
	repaired  metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithTxRunner sets the transaction scope used around confirm persistence.
func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

// WithMeterProvider wires order mutation counters to the given provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		meter := mp.Meter("posledger/checkout")
		var err error
		if s.confirmed, err = meter.Int64Counter("pos.orders.confirmed"); err != nil {
			s.lg.Warn("register confirmed counter", zap.Error(err))
		}
		if s.repaired, err = meter.Int64Counter("pos.order.total.repaired"); err != nil {
			s.lg.Warn("register repaired counter", zap.Error(err))
		}
	}
}

// WithTracerProvider wires the confirm span to the given provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer("posledger/checkout") }
}

// NewService creates the order-editing controller over the live session.
func NewService(sessions *session.Manager, orders order.Repository, lg *zap.Logger, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		orders:   orders,
		tx:       nopTx{},
		lg:       lg,
		tracer:   tracenoop.NewTracerProvider().Tracer("posledger/checkout"),
	}
	mp := metricnoop.NewMeterProvider().Meter("posledger/checkout")
	s.confirmed, _ = mp.Int64Counter("pos.orders.confirmed")
	s.repaired, _ = mp.Int64Counter("pos.order.total.repaired")

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddProduct adds quantity of p to the current order. An existing line for
// the same product grows its quantity instead of duplicating; a new line
// gets a temporary id and snapshots the product's current name, barcode and
// prices. The total is recomputed from scratch over all lines.
func (s *Service) AddProduct(p product.Product, quantity decimal.Decimal) {
	st := s.sessions.Current()
	items := st.Items().Get()

	next := order.CloneLineItems(items)
	merged := false
	for i := range next {
		if next[i].ProductID == p.ID {
			next[i].Quantity = next[i].Quantity.Add(quantity)
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, order.LineItem{
			ID:          st.NextTempID(),
			ProductID:   p.ID,
			ProductName: p.Name,
			Barcode:     p.Barcode,
			Quantity:    quantity,
			SellPrice:   p.SellPrice,
			BuyPrice:    p.BuyPrice,
		})
	}
	s.publish(st, next)
}

// RemoveItem removes the line with the given id from the current order.
// Matching is by id, not by reference, because callers hold copies. A
// missing id is a no-op.
func (s *Service) RemoveItem(itemID int64) {
	st := s.sessions.Current()
	items := st.Items().Get()

	next := make([]order.LineItem, 0, len(items))
	for _, li := range items {
		if li.ID != itemID {
			next = append(next, li)
		}
	}
	if len(next) == len(items) {
		return
	}
	s.publish(st, next)
}

// UpdateQuantity sets the quantity of the line with the given id. Quantities
// are decimal because weighables sell in fractions. A missing id leaves the
// order untouched and returns ErrStaleItem.
func (s *Service) UpdateQuantity(itemID int64, quantity decimal.Decimal) error {
	st := s.sessions.Current()
	items := st.Items().Get()

	next := order.CloneLineItems(items)
	found := false
	for i := range next {
		if next[i].ID == itemID {
			next[i].Quantity = quantity
			found = true
			break
		}
	}
	if !found {
		s.lg.Warn("quantity update for unknown line item", zap.Int64("item_id", itemID))
		return ErrStaleItem
	}
	s.publish(st, next)
	return nil
}

// SetCustomer assigns the current order to customerID.
//
// With preserveItems the aggregate is kept as-is under the new customer;
// that is the path for items rung up before any customer was chosen.
// Otherwise the outgoing customer's aggregate is stashed, and the incoming
// customer either gets their previously stashed aggregate back or a fresh
// order holding whatever unassigned lines are still present.
func (s *Service) SetCustomer(customerID int64, preserveItems bool) {
	st := s.sessions.Current()
	cur := st.Order().Get()
	items := st.Items().Get()

	if !preserveItems && cur.CustomerID != customerID && cur.CustomerID > 0 {
		st.Stash(cur.CustomerID, cur, items)
		// The outgoing customer's lines now live in the stash.
		items = []order.LineItem{}
	}

	cur.CustomerID = customerID

	switch {
	case preserveItems:
		st.Order().Set(cur)
	default:
		if o, stashedItems, ok := st.Stashed(customerID); ok {
			cur.Total = o.Total
			items = stashedItems
		} else {
			cur.Total = s.flooredTotal(items)
		}
		st.Order().Set(cur)
		st.Items().Set(order.CloneLineItems(items))
	}

	s.reconcileTotal(st)
}

// ConfirmOrder persists the current order and its items and starts a fresh
// session for the same clerk.
func (s *Service) ConfirmOrder(ctx context.Context) error {
	return s.ConfirmAndThen(ctx, nil)
}

// ConfirmAndThen is ConfirmOrder with a hook: after persistence succeeds the
// live order is republished carrying its database-assigned id, then fn is
// invoked with the persisted aggregate, and only then is the session
// replaced. Receipt printing is the intended consumer.
func (s *Service) ConfirmAndThen(ctx context.Context, fn func(o order.Order, items []order.LineItem)) error {
	ctx, span := s.tracer.Start(ctx, "checkout.ConfirmOrder")
	defer span.End()

	st := s.sessions.Current()
	o := st.Order().Get()
	items := st.Items().Get()

	switch {
	case o.CustomerID <= 0:
		return &ValidationError{Reason: "no customer selected"}
	case o.UserID <= 0:
		return &ValidationError{Reason: "no clerk selected"}
	case len(items) == 0:
		return &ValidationError{Reason: "order has no items"}
	}

	persisted := order.CloneLineItems(items)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		id, err := s.orders.InsertOrder(ctx, &o)
		if err != nil {
			return errors.Wrap(err, "insert order")
		}
		o.ID = id

		for i := range persisted {
			persisted[i].OrderID = id
			if persisted[i].IsPersisted() {
				if err := s.orders.UpdateLineItem(ctx, &persisted[i]); err != nil {
					return errors.Wrapf(err, "update line item %d", persisted[i].ID)
				}
				continue
			}
			// A temporary id must never be written as a primary key.
			persisted[i].ID = 0
			lineID, err := s.orders.InsertLineItem(ctx, &persisted[i])
			if err != nil {
				return errors.Wrap(err, "insert line item")
			}
			persisted[i].ID = lineID
		}
		return nil
	})
	if err != nil {
		// In-memory state is intentionally kept: a failed confirm means
		// "retry persistence", not "discard order".
		return errors.Wrap(err, "confirm order")
	}

	s.confirmed.Add(ctx, 1)

	if fn != nil {
		st.Order().Set(o)
		st.Items().Set(order.CloneLineItems(persisted))
		fn(o, persisted)
	}

	st.DropStashed(o.CustomerID)
	st.DropAllStashed()
	s.sessions.NewSession(o.UserID)
	return nil
}

// Item returns the current order's line with the given id. Callers holding a
// stale copy use this to re-read the line before acting on it.
func (s *Service) Item(itemID int64) (order.LineItem, bool) {
	for _, li := range s.sessions.Current().Items().Get() {
		if li.ID == itemID {
			return li, true
		}
	}
	return order.LineItem{}, false
}

// RecalculateTotal recomputes the order total from the current items and
// publishes the corrected order.
func (s *Service) RecalculateTotal() {
	st := s.sessions.Current()
	o := st.Order().Get()
	o.Total = s.flooredTotal(st.Items().Get())
	st.Order().Set(o)
}

// publish replaces the current items with next, recomputes the total and
// republishes both. next must be a fresh slice instance.
func (s *Service) publish(st *session.State, next []order.LineItem) {
	o := st.Order().Get()
	o.Total = s.flooredTotal(next)
	st.Order().Set(o)
	st.Items().Set(next)
}

// flooredTotal sums quantity*sellPrice over items. A negative sum signals an
// upstream bug; it is logged and floored at zero.
func (s *Service) flooredTotal(items []order.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.LineTotal())
	}
	if total.IsNegative() {
		s.lg.Warn("computed order total is negative, flooring at zero",
			zap.String("total", total.String()))
		return decimal.Zero
	}
	return total
}

// reconcileTotal recomputes the total one more time and corrects the stored
// value when it drifts beyond totalEpsilon. Drift indicates a prior bug, so
// the repair is logged and counted.
func (s *Service) reconcileTotal(st *session.State) {
	o := st.Order().Get()
	want := s.flooredTotal(st.Items().Get())
	if o.Total.Sub(want).Abs().LessThanOrEqual(totalEpsilon) {
		return
	}
	s.lg.Warn("stored order total disagrees with recomputation, correcting",
		zap.String("stored", o.Total.String()),
		zap.String("computed", want.String()))
	s.repaired.Add(context.Background(), 1)
	o.Total = want
	st.Order().Set(o)
}
