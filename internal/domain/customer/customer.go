package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer matches the requested id.
var ErrNotFound = errors.New("customer not found")

// Customer identifies who an order is rung up for.
type Customer struct {
	ID    int64
	Name  string
	Phone string
}

// Repository defines lookup operations for customers.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
	List(ctx context.Context) ([]Customer, error)
	Create(ctx context.Context, c *Customer) (int64, error)
}
