package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	"github.com/tillworks/posledger/internal/domain/customer"
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by SQLite.
type CustomerRepository struct {
	store *Store
}

// NewCustomerRepository returns a CustomerRepository using the given store.
func NewCustomerRepository(store *Store) *CustomerRepository {
	return &CustomerRepository{store: store}
}

// FindByID retrieves a customer by id.
func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := r.store.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, phone FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customer.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find customer %d", id)
	}
	return &c, nil
}

// List returns all customers ordered by name.
func (r *CustomerRepository) List(ctx context.Context) ([]customer.Customer, error) {
	rows, err := r.store.q(ctx).QueryContext(ctx,
		`SELECT id, name, phone FROM customers ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list customers")
	}
	defer func() { _ = rows.Close() }()

	var out []customer.Customer
	for rows.Next() {
		var c customer.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return nil, errors.Wrap(err, "scan customer")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Create inserts a new customer and returns its assigned id.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) (int64, error) {
	res, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO customers (name, phone) VALUES (?, ?)`, c.Name, c.Phone)
	if err != nil {
		return 0, errors.Wrapf(err, "create customer %q", c.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "customer insert id")
	}
	return id, nil
}
