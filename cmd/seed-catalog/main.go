// seed-catalog loads a gzipped JSON product catalog into the embedded store.
// Existing barcodes are updated in place, everything else is inserted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/tillworks/posledger/internal/domain/product"
	"github.com/tillworks/posledger/internal/storage/sqlite"
)

type productJSON struct {
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	SellPrice decimal.Decimal `json:"sell_price"`
	BuyPrice  decimal.Decimal `json:"buy_price"`
	Stock     decimal.Decimal `json:"stock"`
}

func main() {
	var (
		dbPath      string
		catalogFile string
	)

	flag.StringVar(&dbPath, "db-path", "posledger.db", "SQLite database file path (or POS_DB_PATH env)")
	flag.StringVar(&catalogFile, "catalog-file", "data/products.json.gz", "path to gzipped products JSON file")
	flag.Parse()

	if v := os.Getenv("POS_DB_PATH"); v != "" && dbPath == "posledger.db" {
		dbPath = v
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dbPath, catalogFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, dbPath, catalogFile string) error {
	slog.Info("opening store", slog.String("path", dbPath))

	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = store.Close() }()

	products, err := readCatalog(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog")
	}

	slog.Info("seeding products", slog.Int("count", len(products)))

	repo := sqlite.NewProductRepository(store)
	for _, p := range products {
		if p.Barcode == "" || p.Name == "" {
			return errors.Errorf("catalog entry missing barcode or name: %+v", p)
		}
		if p.SellPrice.IsNegative() || p.BuyPrice.IsNegative() || p.Stock.IsNegative() {
			return errors.Errorf("catalog entry %s has a negative value", p.Barcode)
		}

		if err := upsert(ctx, repo, p); err != nil {
			return errors.Wrapf(err, "seed product %s", p.Barcode)
		}
		slog.Info("seeded product", slog.String("barcode", p.Barcode), slog.String("name", p.Name))
	}
	return nil
}

func readCatalog(path string) ([]productJSON, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog file")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip stream")
	}
	defer func() { _ = gz.Close() }()

	var products []productJSON
	if err := json.NewDecoder(gz).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	return products, nil
}

func upsert(ctx context.Context, repo *sqlite.ProductRepository, p productJSON) error {
	existing, err := repo.FindByBarcode(ctx, p.Barcode)
	switch {
	case errors.Is(err, product.ErrNotFound):
		_, err := repo.Create(ctx, &product.Product{
			Barcode:   p.Barcode,
			Name:      p.Name,
			SellPrice: p.SellPrice,
			BuyPrice:  p.BuyPrice,
			Stock:     p.Stock,
		})
		return err
	case err != nil:
		return err
	}

	existing.Name = p.Name
	existing.SellPrice = p.SellPrice
	existing.BuyPrice = p.BuyPrice
	existing.Stock = p.Stock
	return repo.Update(ctx, existing)
}
