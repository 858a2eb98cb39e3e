package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no product matches the requested barcode or id.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for sale. Stock is decimal
// because weighable goods are sold in fractional quantities.
type Product struct {
	ID        int64
	Barcode   string
	Name      string
	SellPrice decimal.Decimal
	BuyPrice  decimal.Decimal
	Stock     decimal.Decimal
}

// Repository defines catalog operations used by the order-editing core.
type Repository interface {
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Create(ctx context.Context, p *Product) (int64, error)
	Update(ctx context.Context, p *Product) error
	UpdateStock(ctx context.Context, id int64, stock decimal.Decimal) error
}
