package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/semver/v3"
	"github.com/go-faster/errors"
)

// migration is one versioned schema step. Versions are semver strings and
// must be listed in ascending order.
type migration struct {
	Version string
	Up      string
}

var allMigrations = []migration{
	{Version: "1.0.0", Up: migrationV1},
}

// Monetary values and quantities are stored as TEXT holding exact decimal
// strings; SQLite REAL would reintroduce the float drift the domain works to
// avoid. Orders deliberately carry no foreign keys to customers/users: those
// tables are owned by out-of-process catalog management and an order must
// survive their deletion.
const migrationV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
    version     TEXT PRIMARY KEY,
    applied_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    barcode     TEXT NOT NULL UNIQUE,
    name        TEXT NOT NULL,
    sell_price  TEXT NOT NULL,
    buy_price   TEXT NOT NULL,
    stock       TEXT NOT NULL DEFAULT '0'
);

CREATE TABLE IF NOT EXISTS customers (
    id     INTEGER PRIMARY KEY AUTOINCREMENT,
    name   TEXT NOT NULL,
    phone  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS users (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    name  TEXT NOT NULL,
    role  TEXT NOT NULL DEFAULT 'cashier'
);

CREATE TABLE IF NOT EXISTS orders (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    customer_id  INTEGER NOT NULL,
    user_id      INTEGER NOT NULL,
    created_at   TIMESTAMP NOT NULL,
    total        TEXT NOT NULL,
    paid         INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id);

CREATE TABLE IF NOT EXISTS order_items (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id      INTEGER REFERENCES orders(id) ON DELETE CASCADE,
    product_id    INTEGER,
    product_name  TEXT NOT NULL,
    barcode       TEXT NOT NULL,
    quantity      TEXT NOT NULL,
    sell_price    TEXT NOT NULL,
    buy_price     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`

// applyMigrations brings the schema up to the latest listed version.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	current, err := currentVersion(ctx, db)
	if err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for _, m := range allMigrations {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return errors.Wrapf(err, "parse migration version %q", m.Version)
		}
		if current != nil && !v.GreaterThan(current) {
			continue
		}
		if _, err := db.ExecContext(ctx, m.Up); err != nil {
			return errors.Wrapf(err, "apply migration %s", m.Version)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version,
		); err != nil {
			return errors.Wrapf(err, "record migration %s", m.Version)
		}
	}
	return nil
}

// currentVersion returns the highest applied schema version, or nil when the
// database is brand new.
func currentVersion(ctx context.Context, db *sql.DB) (*semver.Version, error) {
	var exists int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var highest *semver.Version
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "parse stored version %q", raw)
		}
		if highest == nil || v.GreaterThan(highest) {
			highest = v
		}
	}
	return highest, rows.Err()
}
