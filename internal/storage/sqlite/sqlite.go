// Package sqlite implements the domain repositories on an embedded SQLite
// database. The store is single-writer by construction (one connection),
// writes are additionally serialized per collaborator by worker queues, and
// confirm's header+items sequence runs inside a real transaction via
// RunInTx.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
)

// Store wraps the database handle and provides the transaction scope.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// WAL keeps readers unblocked during the background writes; a single
	// open connection sidesteps SQLITE_BUSY between pool connections.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, errors.Wrapf(err, "exec %q", pragma)
		}
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply migrations")
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable. Used by the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// querier is satisfied by both *sql.DB and *sql.Tx so repository methods run
// unchanged inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// RunInTx executes fn inside a transaction. Repository calls made with the
// context passed to fn join the transaction; the transaction commits iff fn
// returns nil.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "rollback failed: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// q returns the transaction carried by ctx, or the plain database handle.
func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}
