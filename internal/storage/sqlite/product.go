package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/tillworks/posledger/internal/domain/product"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by SQLite.
type ProductRepository struct {
	store *Store
}

// NewProductRepository returns a ProductRepository using the given store.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

const productColumns = `id, barcode, name, sell_price, buy_price, stock`

func scanProduct(row interface{ Scan(...any) error }) (*product.Product, error) {
	var (
		p                      product.Product
		sellRaw, buyRaw, stock string
	)
	if err := row.Scan(&p.ID, &p.Barcode, &p.Name, &sellRaw, &buyRaw, &stock); err != nil {
		return nil, err
	}

	var err error
	if p.SellPrice, err = decimal.NewFromString(sellRaw); err != nil {
		return nil, errors.Wrapf(err, "parse sell_price %q", sellRaw)
	}
	if p.BuyPrice, err = decimal.NewFromString(buyRaw); err != nil {
		return nil, errors.Wrapf(err, "parse buy_price %q", buyRaw)
	}
	if p.Stock, err = decimal.NewFromString(stock); err != nil {
		return nil, errors.Wrapf(err, "parse stock %q", stock)
	}
	return &p, nil
}

// FindByBarcode retrieves a product by its unique barcode.
func (r *ProductRepository) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	row := r.store.q(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE barcode = ?`, barcode)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find product by barcode %q", barcode)
	}
	return p, nil
}

// FindByID retrieves a product by id.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*product.Product, error) {
	row := r.store.q(ctx).QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find product %d", id)
	}
	return p, nil
}

// List returns the whole catalog ordered by name.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.store.q(ctx).QueryContext(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	defer func() { _ = rows.Close() }()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan product")
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create inserts a new product and returns its assigned id.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) (int64, error) {
	res, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO products (barcode, name, sell_price, buy_price, stock)
		 VALUES (?, ?, ?, ?, ?)`,
		p.Barcode, p.Name, p.SellPrice.String(), p.BuyPrice.String(), p.Stock.String())
	if err != nil {
		return 0, errors.Wrapf(err, "create product %q", p.Barcode)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "product insert id")
	}
	return id, nil
}

// Update rewrites all mutable fields of the product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`UPDATE products SET barcode = ?, name = ?, sell_price = ?, buy_price = ?, stock = ?
		 WHERE id = ?`,
		p.Barcode, p.Name, p.SellPrice.String(), p.BuyPrice.String(), p.Stock.String(), p.ID)
	if err != nil {
		return errors.Wrapf(err, "update product %d", p.ID)
	}
	return nil
}

// UpdateStock sets the stock level of a product.
func (r *ProductRepository) UpdateStock(ctx context.Context, id int64, stock decimal.Decimal) error {
	_, err := r.store.q(ctx).ExecContext(ctx,
		`UPDATE products SET stock = ? WHERE id = ?`, stock.String(), id)
	if err != nil {
		return errors.Wrapf(err, "update stock for product %d", id)
	}
	return nil
}
