package sqlite

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	"github.com/tillworks/posledger/internal/domain/user"
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by SQLite.
type UserRepository struct {
	store *Store
}

// NewUserRepository returns a UserRepository using the given store.
func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.store.q(ctx).QueryRowContext(ctx,
		`SELECT id, name, role FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find user %d", id)
	}
	return &u, nil
}

// List returns all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]user.User, error) {
	rows, err := r.store.q(ctx).QueryContext(ctx,
		`SELECT id, name, role FROM users ORDER BY name`)
	if err != nil {
		return nil, errors.Wrap(err, "list users")
	}
	defer func() { _ = rows.Close() }()

	var out []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role); err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Create inserts a new user and returns its assigned id.
func (r *UserRepository) Create(ctx context.Context, u *user.User) (int64, error) {
	res, err := r.store.q(ctx).ExecContext(ctx,
		`INSERT INTO users (name, role) VALUES (?, ?)`, u.Name, u.Role)
	if err != nil {
		return 0, errors.Wrapf(err, "create user %q", u.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "user insert id")
	}
	return id, nil
}
